package domain

// Outcome is the result of resolving a short code: either the destination
// was found, or the code does not exist.
type Outcome struct {
	DestinationURL string
	Found          bool
}

func Found(destinationURL string) Outcome {
	return Outcome{DestinationURL: destinationURL, Found: true}
}

func NotFound() Outcome {
	return Outcome{}
}
