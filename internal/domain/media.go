package domain

import "encoding/base64"

// Image is one product photo supplied by the caller. Either URL or Data is
// set; MIME describes Data.
type Image struct {
	Data []byte
	MIME string
	URL  string
}

// DataURI renders the image inline. It returns "" when there are no bytes.
func (i Image) DataURI() string {
	if len(i.Data) == 0 {
		return ""
	}
	mime := i.MIME
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}
