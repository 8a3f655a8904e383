package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetection_Kind(t *testing.T) {
	tests := []struct {
		name      string
		detection *Detection
		want      Kind
	}{
		{"nil detection", nil, NoFace},
		{"no faces", &Detection{}, NoFace},
		{"one face", &Detection{Faces: []Face{{Confidence: 0.9}}}, SingleFace},
		{"two faces", &Detection{Faces: []Face{{Confidence: 0.9}, {Confidence: 0.8}}}, MultipleFaces},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.detection.Kind())
		})
	}
}

func TestDetection_Best(t *testing.T) {
	tests := []struct {
		name      string
		detection *Detection
		wantIndex int
		wantOK    bool
	}{
		{
			name:      "empty",
			detection: &Detection{},
			wantIndex: -1,
			wantOK:    false,
		},
		{
			name:      "single face",
			detection: &Detection{Faces: []Face{{Confidence: 0.4}}},
			wantIndex: 0,
			wantOK:    true,
		},
		{
			name:      "highest confidence last",
			detection: &Detection{Faces: []Face{{Confidence: 0.6}, {Confidence: 0.95}}},
			wantIndex: 1,
			wantOK:    true,
		},
		{
			name:      "highest confidence first",
			detection: &Detection{Faces: []Face{{Confidence: 0.99}, {Confidence: 0.5}, {Confidence: 0.7}}},
			wantIndex: 0,
			wantOK:    true,
		},
		{
			name:      "tie keeps earliest",
			detection: &Detection{Faces: []Face{{Confidence: 0.3}, {Confidence: 0.8}, {Confidence: 0.8}}},
			wantIndex: 1,
			wantOK:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			face, idx, ok := tt.detection.Best()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantIndex, idx)
			if ok {
				assert.Equal(t, tt.detection.Faces[idx].Confidence, face.Confidence)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "no_face", NoFace.String())
	assert.Equal(t, "single_face", SingleFace.String())
	assert.Equal(t, "multiple_faces", MultipleFaces.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
