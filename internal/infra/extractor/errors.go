package extractor

import "errors"

var (
	// ErrInvalidURL indicates the URL cannot be parsed or uses a scheme other than http/https.
	ErrInvalidURL = errors.New("invalid URL or unsupported scheme")

	// ErrPrivateIP indicates the URL resolves to a loopback, private or link-local address.
	ErrPrivateIP = errors.New("URL resolves to private IP address")

	// ErrTooManyRedirects indicates the redirect chain exceeded MaxRedirects.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge indicates the document exceeded MaxBodySize.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTimeout indicates the download did not finish within Timeout.
	ErrTimeout = errors.New("document fetch timed out")

	// ErrUnsupportedFormat indicates a content type that is neither PDF, HTML nor plain text.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrExtractionFailed indicates the document was downloaded but yielded no text.
	ErrExtractionFailed = errors.New("text extraction failed")
)
