package deepface

// RepresentRequest for POST /represent
type RepresentRequest struct {
	Img              string `json:"img"`               // data URI with base64 encoded image
	Model            string `json:"model_name"`        // "Facenet512", "VGG-Face", etc
	Detector         string `json:"detector_backend"`  // "retinaface", "mtcnn", etc
	EnforceDetection bool   `json:"enforce_detection"` // 400 instead of a whole-image embedding when no face
	Align            bool   `json:"align"`
}

// RepresentResponse from POST /represent
type RepresentResponse struct {
	Results []RepresentResult `json:"results"`
}

type RepresentResult struct {
	Embedding      []float64  `json:"embedding"`
	FacialArea     FacialArea `json:"facial_area"`
	FaceConfidence float64    `json:"face_confidence"`
}

type FacialArea struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// modelDimensions maps DeepFace model names to their embedding length
var modelDimensions = map[string]int{
	"VGG-Face":     4096,
	"Facenet":      128,
	"Facenet512":   512,
	"OpenFace":     128,
	"DeepFace":     4096,
	"DeepID":       160,
	"ArcFace":      512,
	"Dlib":         128,
	"SFace":        128,
	"GhostFaceNet": 512,
}

// ModelDimension returns the embedding length produced by model.
func ModelDimension(model string) (int, bool) {
	dim, ok := modelDimensions[model]
	return dim, ok
}
