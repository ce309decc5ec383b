package handlers

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/expression-tracker/internal/expression"
)

// RulesHandler handles rule listing and custom rule registration
type RulesHandler struct {
	rules  *expression.RuleSet
	labels *expression.Labeler
	log    *logrus.Entry
}

// NewRulesHandler creates a new rules handler
func NewRulesHandler(rules *expression.RuleSet, labels *expression.Labeler, logger *logrus.Logger) *RulesHandler {
	return &RulesHandler{
		rules:  rules,
		labels: labels,
		log:    componentLogger(logger, "rules"),
	}
}

// RuleResponse represents one rule
type RuleResponse struct {
	Expression string  `json:"expression"`
	Channel    string  `json:"channel"`
	Threshold  float64 `json:"threshold"`
	Label      string  `json:"label"`
}

// CreateRuleRequest represents a custom rule. Threshold defaults to 0.5.
type CreateRuleRequest struct {
	Expression string   `json:"expression"`
	Channel    string   `json:"channel"`
	Threshold  *float64 `json:"threshold,omitempty"`
	Label      string   `json:"label,omitempty"`
}

// CatalogResponse describes the built-in rules and the known channel vocabulary
type CatalogResponse struct {
	Rules            []RuleResponse `json:"rules"`
	Channels         []string       `json:"channels"`
	DefaultThreshold float64        `json:"default_threshold"`
}

func (h *RulesHandler) toResponse(rules []expression.Rule) []RuleResponse {
	out := make([]RuleResponse, len(rules))
	for i, r := range rules {
		out[i] = RuleResponse{
			Expression: string(r.Expression),
			Channel:    string(r.Channel),
			Threshold:  r.Threshold,
			Label:      h.labels.Label(r.Expression),
		}
	}
	return out
}

// List returns the live rules in evaluation order
func (h *RulesHandler) List(w http.ResponseWriter, r *http.Request) {
	rules := h.toResponse(h.rules.Snapshot())
	respondJSON(w, http.StatusOK, map[string]any{
		"rules": rules,
		"count": len(rules),
	})
}

// Create appends a custom rule; it applies from the next frame
func (h *RulesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRuleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	rule := expression.NewRule(expression.ExpressionID(req.Expression), expression.ChannelID(req.Channel))
	if req.Threshold != nil {
		rule.Threshold = *req.Threshold
	}
	if err := rule.Validate(); err != nil {
		if errors.Is(err, expression.ErrInvalidRule) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to validate rule")
		return
	}

	if req.Label != "" {
		h.labels.SetLabel(rule.Expression, req.Label)
	}
	h.rules.Append(rule)

	log := h.log.WithFields(logrus.Fields{
		"expression": sanitizeForLog(req.Expression),
		"channel":    sanitizeForLog(req.Channel),
		"threshold":  rule.Threshold,
	})
	if !expression.IsKnownChannel(rule.Channel) {
		log.Warn("Rule added for unknown channel")
	} else {
		log.Info("Rule added")
	}

	respondJSON(w, http.StatusCreated, h.toResponse([]expression.Rule{rule})[0])
}

// Catalog returns the built-in rules and channel vocabulary
func (h *RulesHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	channels := expression.Channels()
	names := make([]string, len(channels))
	for i, c := range channels {
		names[i] = string(c)
	}
	respondJSON(w, http.StatusOK, CatalogResponse{
		Rules:            h.toResponse(expression.DefaultRules()),
		Channels:         names,
		DefaultThreshold: expression.DefaultThreshold,
	})
}
