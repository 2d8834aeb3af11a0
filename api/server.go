// Package api serves pipeline results over HTTP: JSON endpoints for area
// and validation statistics plus an HTML report chart.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/HMB3/AUS-Land-Clearing/db"
	"github.com/HMB3/AUS-Land-Clearing/internal/export"
	"github.com/HMB3/AUS-Land-Clearing/internal/pipeline"
	"github.com/HMB3/AUS-Land-Clearing/internal/region"
	"github.com/HMB3/AUS-Land-Clearing/internal/units"
	"github.com/HMB3/AUS-Land-Clearing/internal/version"
)

type Server struct {
	db *db.DB
}

func NewServer(db *db.DB) *Server {
	return &Server{db: db}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/regions", s.listRegions)
	mux.HandleFunc("/api/version", s.versionHandler)
	mux.HandleFunc("/api/areas", s.listAreas)
	mux.HandleFunc("/api/validation", s.listValidation)
	mux.HandleFunc("/report", s.reportHandler)
	mux.HandleFunc("/", s.homeHandler)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Welcome to the Land Clearing Report Server!"))
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (s *Server) listRegions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, region.BuiltinNames())
}

func (s *Server) versionHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}

// regionParam reads the mandatory region query parameter.
func regionParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := r.URL.Query().Get("region")
	if name == "" {
		http.Error(w, "region parameter is required", http.StatusBadRequest)
		return "", false
	}
	return name, true
}

type areaResponse struct {
	RunID    string  `json:"run_id"`
	Region   string  `json:"region"`
	Year     int     `json:"year"`
	Category string  `json:"category"`
	Area     float64 `json:"area"`
	Units    string  `json:"units"`
}

func (s *Server) listAreas(w http.ResponseWriter, r *http.Request) {
	name, ok := regionParam(w, r)
	if !ok {
		return
	}
	// Areas are stored in m2; an optional units parameter converts them.
	unit := r.URL.Query().Get("units")
	if unit == "" {
		unit = units.HA
	}
	if !units.IsValid(unit) {
		http.Error(w, "Invalid units parameter. Valid units: "+units.GetValidUnitsString(), http.StatusBadRequest)
		return
	}
	rows, err := s.db.ClearingAreas(name)
	if err != nil {
		http.Error(w, "Failed to query areas", http.StatusInternalServerError)
		return
	}
	out := make([]areaResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, areaResponse{
			RunID:    row.RunID,
			Region:   row.Region,
			Year:     row.Year,
			Category: row.Category,
			Area:     units.ConvertArea(row.AreaM2, unit),
			Units:    unit,
		})
	}
	s.writeJSON(w, out)
}

type validationResponse struct {
	RunID  string          `json:"run_id"`
	Region string          `json:"region"`
	Year   int             `json:"year"`
	Stats  json.RawMessage `json:"stats"`
}

func (s *Server) listValidation(w http.ResponseWriter, r *http.Request) {
	name, ok := regionParam(w, r)
	if !ok {
		return
	}
	rows, err := s.db.Validations(name)
	if err != nil {
		http.Error(w, "Failed to query validation results", http.StatusInternalServerError)
		return
	}
	out := make([]validationResponse, 0, len(rows))
	for _, row := range rows {
		// ConfusionStats marshals NaN metrics as null.
		stats, err := json.Marshal(row.Stats)
		if err != nil {
			http.Error(w, "Failed to encode stats", http.StatusInternalServerError)
			return
		}
		out = append(out, validationResponse{
			RunID:  row.RunID,
			Region: row.Region,
			Year:   row.Year,
			Stats:  stats,
		})
	}
	s.writeJSON(w, out)
}

// reportHandler renders the annual clearing bar chart for a region.
func (s *Server) reportHandler(w http.ResponseWriter, r *http.Request) {
	name, ok := regionParam(w, r)
	if !ok {
		return
	}
	rows, err := s.db.ClearingAreas(name)
	if err != nil {
		http.Error(w, "Failed to query areas", http.StatusInternalServerError)
		return
	}
	records := make([]export.AreaRecord, 0, len(rows))
	for _, row := range rows {
		if row.Category != pipeline.ClearedCategory {
			continue
		}
		records = append(records, export.AreaRecord{
			Region:   row.Region,
			Year:     row.Year,
			Category: row.Category,
			AreaM2:   row.AreaM2,
		})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := export.RenderAnnualClearingChart(w, name, records); err != nil {
		http.Error(w, "Failed to render report", http.StatusInternalServerError)
	}
}
