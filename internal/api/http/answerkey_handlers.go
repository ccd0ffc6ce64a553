package http

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/review-autograder/internal/answerkey"
	"github.com/mind-engage/review-autograder/internal/grading"
	"github.com/mind-engage/review-autograder/internal/storage"
)

// CurrentKeyBlob is where the most recent uploaded key is kept so it survives
// restarts.
const CurrentKeyBlob = "answerkeys/current.csv"

const maxKeyUpload = 8 << 20

type answerKeyView struct {
	Source    string             `json:"source"`
	LoadedAt  time.Time          `json:"loaded_at"`
	Count     int                `json:"count"`
	Questions []grading.Question `json:"questions"`
}

// GET /answerkey
func GetAnswerKeyHandler(keys *answerkey.Holder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		k := keys.Current()
		if k == nil {
			http.Error(w, "no answer key loaded", http.StatusNotFound)
			return
		}
		src, at := keys.Info()
		writeJSON(w, http.StatusOK, answerKeyView{
			Source:    src,
			LoadedAt:  at,
			Count:     k.Len(),
			Questions: k.Questions(),
		})
	}
}

// POST /answerkey  (multipart form, field "file")
//
// The CSV is validated before anything is stored; a bad file leaves the
// active key untouched.
func UploadAnswerKeyHandler(keys *answerkey.Holder, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxKeyUpload)
		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			http.Error(w, "read upload: "+err.Error(), http.StatusBadRequest)
			return
		}
		k, err := answerkey.Parse(bytes.NewReader(data))
		if err != nil {
			http.Error(w, "answer key: "+err.Error(), http.StatusBadRequest)
			return
		}

		name := fmt.Sprintf("answerkeys/%s-%s.csv", time.Now().UTC().Format("20060102T150405Z"), uuid.NewString())
		stored, err := bs.Put(name, bytes.NewReader(data))
		if err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if _, err := bs.Put(CurrentKeyBlob, bytes.NewReader(data)); err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		keys.Swap(k, "blob:"+stored)
		log.Printf("answer key replaced from %s (%d questions)", stored, k.Len())

		writeJSON(w, http.StatusCreated, map[string]any{"key": stored, "count": k.Len()})
	}
}
