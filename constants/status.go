package constants

// ImageState is the lifecycle of a single image inside a batch.
type ImageState string

const (
	ImageReceived      ImageState = "RECEIVED"
	ImageRequesting    ImageState = "REQUESTING"    // vision model call in flight
	ImagePreprocessing ImageState = "PREPROCESSING" // local OCR path
	ImageParsed        ImageState = "PARSED"
	ImageAccepted      ImageState = "ACCEPTED" // terminal
	ImageRejected      ImageState = "REJECTED" // terminal
)
