package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/livescore/internal/domain"
	apperrors "github.com/pscheid92/livescore/internal/platform/errors"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// flexInt accepts a JSON integer or a string holding one. Fields of this type
// land in INTEGER columns, hence max=2147483647 on their validate tags.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	s := string(b)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("expected an integer, got %s", b)
	}
	*n = flexInt(v)
	return nil
}

func (n *flexInt) intPtr() *int {
	if n == nil {
		return nil
	}
	v := int(*n)
	return &v
}

func (n *flexInt) orZero() int {
	if n == nil {
		return 0
	}
	return int(*n)
}

type createMatchRequest struct {
	Sport     string    `json:"sport" validate:"required,max=64"`
	HomeTeam  string    `json:"homeTeam" validate:"required,max=128"`
	AwayTeam  string    `json:"awayTeam" validate:"required,max=128"`
	StartTime time.Time `json:"startTime" validate:"required"`
	EndTime   time.Time `json:"endTime" validate:"required,gtfield=StartTime"`
	HomeScore *flexInt  `json:"homeScore" validate:"omitempty,min=0,max=2147483647"`
	AwayScore *flexInt  `json:"awayScore" validate:"omitempty,min=0,max=2147483647"`
}

func (r createMatchRequest) toDomain() domain.NewMatch {
	return domain.NewMatch{
		Sport:     strings.TrimSpace(r.Sport),
		HomeTeam:  strings.TrimSpace(r.HomeTeam),
		AwayTeam:  strings.TrimSpace(r.AwayTeam),
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		HomeScore: r.HomeScore.orZero(),
		AwayScore: r.AwayScore.orZero(),
	}
}

type updateScoreRequest struct {
	HomeScore *flexInt `json:"homeScore" validate:"required,min=0,max=2147483647"`
	AwayScore *flexInt `json:"awayScore" validate:"required,min=0,max=2147483647"`
}

type createCommentaryRequest struct {
	Minute    *flexInt        `json:"minute" validate:"omitempty,min=0,max=2147483647"`
	Sequence  *flexInt        `json:"sequence" validate:"omitempty,min=0,max=2147483647"`
	Period    string          `json:"period" validate:"max=64"`
	EventType string          `json:"eventType" validate:"max=64"`
	Actor     string          `json:"actor" validate:"max=128"`
	Team      string          `json:"team" validate:"max=128"`
	Message   string          `json:"message" validate:"required,max=2000"`
	Metadata  json.RawMessage `json:"metadata"`
	Tags      []string        `json:"tags" validate:"omitempty,max=32,dive,required,max=64"`
}

func (r createCommentaryRequest) toDomain() domain.NewCommentary {
	metadata := bytes.TrimSpace(r.Metadata)
	if bytes.Equal(metadata, []byte("null")) {
		metadata = nil
	}
	return domain.NewCommentary{
		Minute:    r.Minute.intPtr(),
		Sequence:  r.Sequence.intPtr(),
		Period:    r.Period,
		EventType: r.EventType,
		Actor:     r.Actor,
		Team:      r.Team,
		Message:   r.Message,
		Metadata:  json.RawMessage(metadata),
		Tags:      r.Tags,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindJSON decodes the request body into dst and validates it.
func (s *Server) bindJSON(c echo.Context, dst any) error {
	if err := json.NewDecoder(c.Request().Body).Decode(dst); err != nil {
		return apperrors.ValidationError("Invalid payload.").WithField("reason", err.Error())
	}

	if err := s.validate.Struct(dst); err != nil {
		appErr := apperrors.ValidationError("Invalid payload.")
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				appErr.WithField(fe.Field(), fe.Tag())
			}
		}
		return appErr
	}
	return nil
}

// parseLimit reads ?limit=, defaulting to 50 and accepting 1..100.
func parseLimit(c echo.Context) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || limit < 1 || limit > maxListLimit {
		return 0, apperrors.ValidationError("Invalid query.").WithField("limit", raw)
	}
	return limit, nil
}

func parseMatchID(c echo.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ValidationError("Invalid match id").WithField("id", raw)
	}
	return id, nil
}

func validMetadata(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || trimmed[0] == '{'
}
