package digest

import "errors"

var (
	// ErrFeedFetchFailed indicates the day's candidate list could not be fetched.
	ErrFeedFetchFailed = errors.New("failed to fetch paper feed")

	// ErrSelectionFailed indicates the selection reduction could not finish.
	ErrSelectionFailed = errors.New("failed to select papers")

	// ErrDocumentFetchFailed indicates a selected paper's text could not be
	// extracted. The paper is skipped.
	ErrDocumentFetchFailed = errors.New("failed to fetch paper document")

	// ErrSummarizationFailed indicates a summary could not be produced.
	ErrSummarizationFailed = errors.New("failed to summarize paper")

	// ErrDeliveryFailed indicates at least one digest message was not delivered.
	ErrDeliveryFailed = errors.New("failed to deliver digest")
)
