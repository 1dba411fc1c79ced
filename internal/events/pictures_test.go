package events

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Picture endpoints must fail cleanly, not panic, when the server runs
// without S3 configured.
func TestPictureEndpointsWithoutS3(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handler{logger: zap.NewNop()}
	eventID := uuid.NewString()

	cases := []struct {
		name    string
		handler gin.HandlerFunc
		params  gin.Params
	}{
		{"upload", h.UploadPicture, gin.Params{{Key: "id", Value: eventID}}},
		{"list", h.ListPictures, gin.Params{{Key: "id", Value: eventID}}},
		{"delete", h.DeletePicture, gin.Params{
			{Key: "id", Value: eventID},
			{Key: "pictureId", Value: uuid.NewString()},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
			c.Params = tc.params

			tc.handler(c)

			if w.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", w.Code)
			}
		})
	}
}
