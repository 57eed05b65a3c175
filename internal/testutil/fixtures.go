// Package testutil holds fakes and fixtures shared by the use case and
// adapter tests.
package testutil

import "strings"

// SearchResultRecord is one complete search result record.
const SearchResultRecord = `{
  "source": "stylesnap",
  "contentType": "BOUNDING_BOX",
  "content": "bbx-0",
  "dataSource": "vision",
  "properties": {
    "score": "0.97",
    "boundingBox": {
      "imageWidth": 800, "imageHeight": 600, "imw": 800, "imh": 600,
      "topLeftX": 10, "topLeftY": 20, "topRightX": 210, "topRightY": 20,
      "bottomLeftX": 10, "bottomLeftY": 320, "bottomRightX": 210, "bottomRightY": 320,
      "tlx": 0.01, "tly": 0.03, "trx": 0.26, "try": 0.03,
      "blx": 0.01, "bly": 0.53, "brx": 0.26, "bry": 0.53,
      "personScore": "0.0", "personID": 0, "personType": "none",
      "isBeliefPropagationEthnic": false
    },
    "modelName": "fashion-v3",
    "finerClassification": [],
    "label": "dress",
    "category": "apparel",
    "hasInfluencerTaggedASINs": false,
    "featureIndices": "0"
  },
  "subContent": [
    {
      "source": "stylesnap",
      "contentType": "ASIN",
      "content": "B000000001",
      "dataSource": "vision",
      "properties": {"score": "0.91", "glcode": "gl_apparel"},
      "refMarker": "sn_1",
      "subContent": [],
      "metricAlias": "asin"
    }
  ],
  "bbxAsinMetadataList": [
    {
      "glProductGroup": "gl_apparel",
      "byLine": "Brand",
      "price": "$19.99",
      "listPrice": null,
      "currencyPriceRange": null,
      "variationalSomePrimeEligible": true,
      "imageUrl": "https://img.example/1.jpg",
      "asin": "B000000001",
      "availability": null,
      "title": "Summer dress",
      "isAdultProduct": "false",
      "isEligibleForPrimeShipping": true,
      "averageOverallRating": 4.5,
      "totalReviewCount": "120",
      "colorSwatches": [{"asin": "B000000002", "hexColor": "#ff0000"}],
      "twisterVariations": [{"asin": "B000000003", "imageUrl": "https://img.example/3.jpg"}],
      "extraUpstreamField": "ignored"
    }
  ],
  "displayLaunchPoint": "stylesnap",
  "displayFeatureName": "Dress",
  "bbxAsinList": ["B000000001"],
  "bbxRefMarker": "bbx_1"
}`

// ResultsJSON returns a valid payload with the given query id and n copies of
// SearchResultRecord.
func ResultsJSON(queryID string, n int) string {
	records := make([]string, n)
	for i := range records {
		records[i] = SearchResultRecord
	}
	return `{"queryId":"` + queryID + `","searchResults":[` + strings.Join(records, ",") + `]}`
}

// MalformedResultsJSON is valid JSON that violates the payload schema.
const MalformedResultsJSON = `{"queryId": 42, "searchResults": "none"}`

// JPEGBytes is the smallest byte sequence sniffed as image/jpeg.
var JPEGBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0xFF, 0xD9}
