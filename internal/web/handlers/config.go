package handlers

import (
	"net/http"

	"github.com/kozaktomas/expression-tracker/internal/config"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse represents the configuration response. Secrets are never included.
type ConfigResponse struct {
	Debug          bool     `json:"debug"`
	QueueSize      int      `json:"queue_size"`
	RulesFile      string   `json:"rules_file,omitempty"`
	AMQPEnabled    bool     `json:"amqp_enabled"`
	AMQPExchange   string   `json:"amqp_exchange,omitempty"`
	AllowedOrigins []string `json:"allowed_origins"`
	AuthRequired   bool     `json:"auth_required"`
}

// Get returns the effective runtime configuration
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := ConfigResponse{
		Debug:          h.config.Tracker.Debug,
		QueueSize:      h.config.Tracker.QueueSize,
		RulesFile:      h.config.Tracker.RulesFile,
		AMQPEnabled:    h.config.AMQP.Enabled(),
		AllowedOrigins: h.config.Web.AllowedOrigins,
		AuthRequired:   h.config.Web.APIToken != "",
	}
	if resp.AllowedOrigins == nil {
		resp.AllowedOrigins = []string{}
	}
	if resp.AMQPEnabled {
		resp.AMQPExchange = h.config.AMQP.Exchange
	}

	respondJSON(w, http.StatusOK, resp)
}
