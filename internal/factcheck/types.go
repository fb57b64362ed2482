package factcheck

// Claim is one claim record returned by the claim-search API
type Claim struct {
	Text        string   `json:"text"`
	Claimant    string   `json:"claimant,omitempty"`
	ClaimDate   string   `json:"claimDate,omitempty"`
	ClaimReview []Review `json:"claimReview"`
}

// Review is a fact-checker's published verdict on a claim
type Review struct {
	Publisher     Publisher `json:"publisher"`
	URL           string    `json:"url,omitempty"`
	Title         string    `json:"title,omitempty"`
	ReviewDate    string    `json:"reviewDate,omitempty"`
	TextualRating string    `json:"textualRating"`
	LanguageCode  string    `json:"languageCode,omitempty"`
}

// Publisher identifies the fact-checking organisation
type Publisher struct {
	Name string `json:"name,omitempty"`
	Site string `json:"site,omitempty"`
}

// searchResponse is the body of a claims:search response
type searchResponse struct {
	Claims        []Claim `json:"claims"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}
