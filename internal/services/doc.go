// Package services talks to the external recommendation endpoint.
//
// # Wire Format
//
// Every call is a single JSON POST to one configured URL:
//
//	{"type": "metadata" | "recs", "songs": [int...], "genres": [string...], "topk": int}
//
// and expects a 2xx answer shaped as {"songs": [...]}. A non-2xx status, a transport error,
// an undecodable body, or a body without the songs field are all failures:
//   - [shared.ErrAPIRequest] : transport failure or non-2xx status
//   - [shared.ErrMalformedResponse] : body could not be decoded or has no songs field
//
// Callers decide how to degrade. Seed enrichment falls back to catalog fields; recommendation
// requests surface a retry notice. Nothing here retries.
//
// # Merging
//
// Returned records go through [models.MergeAll] with the catalog lookup, so locally known
// genre and subgenre always win over the server's copy.
//
// # Authentication
//
// When the recommender sits behind a gateway, [NewFromConfig] wraps the HTTP client with
// the OAuth2 client-credentials flow from golang.org/x/oauth2/clientcredentials.
package services
