package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mind-engage/review-autograder/internal/grading"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string // sqlite|postgres|memory
	DBDSN    string

	BlobBasePath  string
	AnswerKeyPath string
	SectionsFile  string // empty: built-in catalogue

	Tolerance     float64
	RevealAnswers bool // let students see correct answers for missed questions

	AuthSecret    string
	AdminUser     string
	AdminPassHash string // bcrypt

	CORSOrigins []string
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	defOrigins := "http://localhost:3000"
	if mode == ModeOnline {
		defOrigins = ""
	}
	return Config{
		Mode:          mode,
		HTTPAddr:      envOr("HTTP_ADDR", ":8080"),
		DBDriver:      envOr("DB_DRIVER", "sqlite"),
		DBDSN:         envOr("DB_DSN", ""),
		BlobBasePath:  envOr("BLOB_BASE_PATH", "./data"),
		AnswerKeyPath: envOr("ANSWER_KEY_PATH", "MA206_Review_Answers.csv"),
		SectionsFile:  os.Getenv("SECTIONS_FILE"),
		Tolerance:     envFloat("GRADE_TOLERANCE", grading.DefaultTolerance),
		RevealAnswers: envBool("REVEAL_ANSWERS", false),
		AuthSecret:    envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:     envOr("ADMIN_USER", "instructor"),
		AdminPassHash: os.Getenv("ADMIN_PASS_HASH"),
		CORSOrigins:   csvOr("CORS_ORIGINS", defOrigins),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

// envFloat falls back to def for unset, unparsable or non-positive values.
func envFloat(k string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(k)), 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
