package gemini

// Image is the first inline image found in a generateContent response.
type Image struct {
	Data     []byte
	MimeType string
	// Text is the first non-empty text part seen before the image.
	Text string
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Absent fields decode to their zero values: no candidates, nil content,
// no parts, empty text and nil inline data.
type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content *content `json:"content"`
}

type apiError struct {
	Message string `json:"message"`
}
