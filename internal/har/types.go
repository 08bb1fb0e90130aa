// Package har converts an HTTP Archive (HAR 1.2) capture into devnull's
// own response config format: one YAML file per unique matcher, with
// response bodies externalized to sibling asset files (spec §4.8/C9).
package har

// File is the minimal HAR 1.2 document shape devnull reads: only
// log.entries[].request.{method,url,queryString} and
// .response.{status,headers,content.{mimeType,text}} are consulted.
type File struct {
	Log Log `json:"log"`
}

type Log struct {
	Entries []Entry `json:"entries"`
}

type Entry struct {
	Request  Request  `json:"request"`
	Response Response `json:"response"`
}

type Request struct {
	Method      string       `json:"method"`
	URL         string       `json:"url"`
	QueryString []NameValue  `json:"queryString"`
}

type Response struct {
	Status  int          `json:"status"`
	Headers []NameValue  `json:"headers"`
	Content Content      `json:"content"`
}

type Content struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

type NameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
