package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/haveachin/slping/internal/app/monitor"
)

const faviconPrefix = "data:image/png;base64,"

type versionDTO struct {
	Name     string `json:"name"`
	Protocol int32  `json:"protocol"`
}

type playersDTO struct {
	Max    int32    `json:"max"`
	Online int32    `json:"online"`
	Sample []string `json:"sample"`
}

type targetDTO struct {
	ID          string          `json:"id"`
	Address     string          `json:"address"`
	Online      bool            `json:"online"`
	Error       string          `json:"error,omitempty"`
	Failures    int             `json:"failures"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
	LastSeen    *time.Time      `json:"lastSeen,omitempty"`
	LatencyMs   int64           `json:"latencyMs"`
	Version     *versionDTO     `json:"version,omitempty"`
	Players     *playersDTO     `json:"players,omitempty"`
	Description string          `json:"description,omitempty"`
	Mods        []string        `json:"mods,omitempty"`
	FaviconHash string          `json:"faviconHash,omitempty"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

func faviconHash(favicon string) string {
	return strconv.FormatUint(xxhash.Sum64String(favicon), 16)
}

func newTargetDTO(s monitor.Status) targetDTO {
	dto := targetDTO{
		ID:       string(s.TargetID),
		Address:  s.Addr,
		Online:   s.Online,
		Failures: s.Failures,
	}

	if s.Err != nil {
		dto.Error = s.Err.Error()
	}
	if !s.UpdatedAt.IsZero() {
		dto.UpdatedAt = &s.UpdatedAt
	}
	if s.LastSeen.IsZero() {
		return dto
	}
	dto.LastSeen = &s.LastSeen

	res := s.Result
	dto.LatencyMs = res.Latency.Milliseconds()
	dto.Version = &versionDTO{
		Name:     res.Status.Version.Name,
		Protocol: res.Status.Version.Protocol,
	}

	sample := make([]string, 0, len(res.Status.Players.Sample))
	for _, p := range res.Status.Players.Sample {
		sample = append(sample, p.Name)
	}
	dto.Players = &playersDTO{
		Max:    res.Status.Players.Max,
		Online: res.Status.Players.Online,
		Sample: sample,
	}

	dto.Description = res.Status.Description.String()
	dto.Mods = res.Status.ModIDs()
	if res.Status.Favicon != nil {
		dto.FaviconHash = faviconHash(*res.Status.Favicon)
	}
	if json.Valid([]byte(res.JSON)) {
		dto.Raw = json.RawMessage(res.JSON)
	}
	return dto
}

func getTargetsHandler(m Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses := m.Statuses()
		dtos := make([]targetDTO, 0, len(statuses))
		for _, s := range statuses {
			dto := newTargetDTO(s)
			dto.Raw = nil
			dtos = append(dtos, dto)
		}

		render.JSON(w, r, dtos)
	}
}

func getTargetHandler(m Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := monitor.TargetID(chi.URLParam(r, "targetID"))
		s, ok := m.Status(id)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		render.JSON(w, r, newTargetDTO(s))
	}
}

func pingTargetHandler(m Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := monitor.TargetID(chi.URLParam(r, "targetID"))
		s, err := m.Poll(r.Context(), id)
		if errors.Is(err, monitor.ErrTargetNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		if err != nil {
			// the poll may have been dropped because the target was replaced
			if cur, ok := m.Status(id); ok {
				s = cur
			}
			render.Status(r, http.StatusBadGateway)
		}
		render.JSON(w, r, newTargetDTO(s))
	}
}

func getFaviconHandler(m Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := monitor.TargetID(chi.URLParam(r, "targetID"))
		s, ok := m.Status(id)
		if !ok || s.Result.Status.Favicon == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		favicon := *s.Result.Status.Favicon
		if !strings.HasPrefix(favicon, faviconPrefix) {
			http.Error(w, "favicon is not a png data url", http.StatusUnprocessableEntity)
			return
		}

		bb, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(favicon, faviconPrefix))
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		etag := strconv.Quote(faviconHash(favicon))
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(bb)
	}
}
