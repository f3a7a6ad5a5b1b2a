package stats

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// statsResponse é o agregado com a taxa de vitória já calculada.
type statsResponse struct {
	PlayerStats
	WinRate int `json:"winRate"`
}

// Handler atende GET /stats/{playerId}.
func Handler(reader Reader, log logrus.FieldLogger) http.HandlerFunc {
	log = log.WithField("component", "StatsAPI")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Method not allowed"})
			return
		}
		playerID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/stats/"), "/")
		if playerID == "" || strings.Contains(playerID, "/") {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "expecting /stats/{playerId}"})
			return
		}

		s, err := reader.Load(r.Context(), playerID)
		if err != nil {
			log.WithError(err).WithField("player", playerID).Error("[StatsAPI] Failed to load stats")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(statsResponse{PlayerStats: s, WinRate: s.WinRate()})
	}
}
