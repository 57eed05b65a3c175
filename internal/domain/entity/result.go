package entity

// ImageSearchResults is the payload of the visual-search exchange. Fields
// without omitempty are required; pointer fields may be null or absent.
type ImageSearchResults struct {
	QueryID       string         `json:"queryId"`
	SearchResults []SearchResult `json:"searchResults"`
}

type SearchResult struct {
	Source              string            `json:"source"`
	ContentType         string            `json:"contentType"`
	Content             string            `json:"content"`
	DataSource          string            `json:"dataSource"`
	Properties          ResultProperties  `json:"properties"`
	SubContent          []SubContent      `json:"subContent"`
	BbxAsinMetadataList []ProductMetadata `json:"bbxAsinMetadataList"`
	DisplayLaunchPoint  string            `json:"displayLaunchPoint"`
	DisplayFeatureName  string            `json:"displayFeatureName"`
	BbxAsinList         []string          `json:"bbxAsinList"`
	BbxRefMarker        string            `json:"bbxRefMarker"`
}

type ResultProperties struct {
	Score                    string      `json:"score"`
	BoundingBox              BoundingBox `json:"boundingBox"`
	ModelName                string      `json:"modelName"`
	FinerClassification      []any       `json:"finerClassification"`
	Label                    string      `json:"label"`
	Category                 string      `json:"category"`
	HasInfluencerTaggedASINs bool        `json:"hasInfluencerTaggedASINs"`
	FeatureIndices           string      `json:"featureIndices"`
}

type BoundingBox struct {
	ImageWidth                float64 `json:"imageWidth"`
	ImageHeight               float64 `json:"imageHeight"`
	Imw                       float64 `json:"imw"`
	Imh                       float64 `json:"imh"`
	TopLeftX                  float64 `json:"topLeftX"`
	TopLeftY                  float64 `json:"topLeftY"`
	TopRightX                 float64 `json:"topRightX"`
	TopRightY                 float64 `json:"topRightY"`
	BottomLeftX               float64 `json:"bottomLeftX"`
	BottomLeftY               float64 `json:"bottomLeftY"`
	BottomRightX              float64 `json:"bottomRightX"`
	BottomRightY              float64 `json:"bottomRightY"`
	Tlx                       float64 `json:"tlx"`
	Tly                       float64 `json:"tly"`
	Trx                       float64 `json:"trx"`
	Try                       float64 `json:"try"`
	Blx                       float64 `json:"blx"`
	Bly                       float64 `json:"bly"`
	Brx                       float64 `json:"brx"`
	Bry                       float64 `json:"bry"`
	PersonScore               string  `json:"personScore"`
	PersonID                  float64 `json:"personID"`
	PersonType                string  `json:"personType"`
	IsBeliefPropagationEthnic bool    `json:"isBeliefPropagationEthnic"`
}

type SubContent struct {
	Source      string               `json:"source"`
	ContentType string               `json:"contentType"`
	Content     string               `json:"content"`
	DataSource  string               `json:"dataSource"`
	Properties  SubContentProperties `json:"properties"`
	RefMarker   string               `json:"refMarker"`
	SubContent  []any                `json:"subContent"`
	MetricAlias string               `json:"metricAlias"`
}

type SubContentProperties struct {
	Score  string `json:"score"`
	Glcode string `json:"glcode"`
}

// ProductMetadata carries pricing and variants for one matched product.
type ProductMetadata struct {
	GlProductGroup               string             `json:"glProductGroup"`
	ByLine                       string             `json:"byLine"`
	Price                        *string            `json:"price,omitempty"`
	ListPrice                    *string            `json:"listPrice,omitempty"`
	CurrencyPriceRange           any                `json:"currencyPriceRange,omitempty"`
	VariationalSomePrimeEligible any                `json:"variationalSomePrimeEligible,omitempty"`
	ImageURL                     string             `json:"imageUrl"`
	Asin                         string             `json:"asin"`
	Availability                 *string            `json:"availability,omitempty"`
	Title                        string             `json:"title"`
	IsAdultProduct               string             `json:"isAdultProduct"`
	IsEligibleForPrimeShipping   any                `json:"isEligibleForPrimeShipping,omitempty"`
	AverageOverallRating         *float64           `json:"averageOverallRating,omitempty"`
	TotalReviewCount             *string            `json:"totalReviewCount,omitempty"`
	ColorSwatches                []ColorSwatch      `json:"colorSwatches"`
	TwisterVariations            []TwisterVariation `json:"twisterVariations"`
}

type ColorSwatch struct {
	Asin     string `json:"asin"`
	HexColor string `json:"hexColor"`
}

type TwisterVariation struct {
	Asin     string `json:"asin"`
	ImageURL string `json:"imageUrl"`
}

// WorkflowResult is returned exactly once per invocation: either Payload or
// Err is set, never both.
type WorkflowResult struct {
	Payload *ImageSearchResults
	Err     *WorkflowError
}

func Succeeded(payload *ImageSearchResults) WorkflowResult {
	return WorkflowResult{Payload: payload}
}

func Failed(err *WorkflowError) WorkflowResult {
	if err == nil {
		err = NewError(KindUnknown, "", nil)
	}
	return WorkflowResult{Err: err}
}

func (r WorkflowResult) OK() bool {
	return r.Err == nil && r.Payload != nil
}
