package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/manoj9april/comet/internal/oracle"
	"github.com/manoj9april/comet/internal/otel"
)

// ChainlinkRequest matches the standard Chainlink External Adapter request format
type ChainlinkRequest struct {
	ID       string                 `json:"id"`
	JobRunID string                 `json:"jobRunId"`
	Data     map[string]interface{} `json:"data"`
}

// ChainlinkResponse matches the standard Chainlink External Adapter response format
type ChainlinkResponse struct {
	JobRunID   string                 `json:"jobRunId,omitempty"`
	StatusCode int                    `json:"statusCode"`
	Status     string                 `json:"status"`
	Data       map[string]interface{} `json:"data"`
	Error      string                 `json:"error,omitempty"`
}

// handleRequest processes the Chainlink External Adapter request. A roundId
// in the request data selects a historical reference round; otherwise the
// latest round is served.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !s.rateLimit.Allow() {
		s.errorResponse(w, "", http.StatusTooManyRequests, "Rate limit exceeded")
		return
	}

	var request ChainlinkRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&request); err != nil {
		s.errorResponse(w, "", http.StatusBadRequest, "Invalid request body")
		return
	}

	roundID, err := parseRoundID(request.Data)
	if err != nil {
		s.errorResponse(w, request.JobRunID, http.StatusBadRequest, err.Error())
		return
	}

	entrypoint := "latest"
	if roundID != nil {
		entrypoint = "round"
	}
	s.metrics.requestCounter.WithLabelValues("started", entrypoint).Inc()

	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()

	ctx, span := otel.Tracer().Start(ctx, "derive_price")
	defer span.End()

	var round oracle.RoundData
	if roundID != nil {
		round, err = s.feed.GetRoundData(ctx, roundID)
	} else {
		round, err = s.feed.LatestRoundData(ctx)
	}
	if err != nil {
		otel.RecordError(ctx, err)
		s.metrics.upstreamErrors.Inc()
		s.metrics.requestCounter.WithLabelValues("error", entrypoint).Inc()
		s.metrics.requestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		s.errorResponse(w, request.JobRunID, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeRound(w, request, round, entrypoint, start)
}

// writeRound formats and sends the EA success response. Answers and round
// fields are serialized as decimal strings so 256-bit values survive JSON.
func (s *Server) writeRound(w http.ResponseWriter, request ChainlinkRequest, round oracle.RoundData, entrypoint string, start time.Time) {
	payload := map[string]interface{}{
		"result":          round.Answer.String(),
		"roundId":         round.RoundID.String(),
		"startedAt":       round.StartedAt.String(),
		"updatedAt":       round.UpdatedAt.String(),
		"answeredInRound": round.AnsweredInRound.String(),
		"decimals":        s.config.FeedDecimals,
		"description":     s.config.FeedDescription,
		"timestamp":       time.Now().Unix(),
	}

	if request.ID != "" {
		payload["id"] = request.ID
	}

	if s.signer != nil {
		sig, err := s.signer.Sign(round)
		if err != nil {
			logrus.Warnf("Failed to sign response: %v", err)
		} else {
			payload["signature"] = sig
		}
	}

	approx, _ := new(big.Float).SetInt(round.Answer).Float64()
	s.metrics.latestAnswer.Set(approx)

	s.metrics.requestCounter.WithLabelValues("success", entrypoint).Inc()
	s.metrics.requestDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())

	response := ChainlinkResponse{
		JobRunID:   request.JobRunID,
		StatusCode: http.StatusOK,
		Status:     "success",
		Data:       payload,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleHealth is a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "OK",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStatus provides detailed service status information
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "operational",
		"uptime":  time.Since(startTime).String(),
		"version": "1.0.0",
		"configuration": map[string]interface{}{
			"reference_feed": s.config.ReferenceFeedAddress,
			"wrapped_token":  s.config.WrappedTokenAddress,
			"decimals":       s.config.FeedDecimals,
			"description":    s.config.FeedDescription,
			"signing":        s.signer != nil,
		},
		"assets": len(s.assetConfigs),
	}

	if s.signer != nil {
		status["signer"] = s.signer.Address()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// handleAssets serves the collateral asset configurations loaded at startup,
// in both the interchange form and the packed storage form.
func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Config interface{} `json:"config"`
		WordA  string      `json:"wordA"`
		WordB  string      `json:"wordB"`
	}

	entries := make([]entry, 0, len(s.assetConfigs))
	for _, c := range s.assetConfigs {
		packed, err := c.Pack()
		if err != nil {
			// Configurations were validated at load time; a pack failure
			// here means process state is corrupt.
			s.errorResponse(w, "", http.StatusInternalServerError, err.Error())
			return
		}
		entries = append(entries, entry{
			Config: c,
			WordA:  fmt.Sprintf("0x%x", packed.WordA),
			WordB:  fmt.Sprintf("0x%x", packed.WordB),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"assets": entries})
}

// errorResponse returns a formatted error response for Chainlink nodes
func (s *Server) errorResponse(w http.ResponseWriter, jobRunID string, statusCode int, errorMsg string) {
	logrus.Warn(errorMsg)

	response := ChainlinkResponse{
		JobRunID:   jobRunID,
		StatusCode: statusCode,
		Status:     "error",
		Error:      errorMsg,
		Data:       map[string]interface{}{"error": errorMsg},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// parseRoundID extracts an optional round identifier from the request data.
// Round ids are opaque; they are parsed as unsigned decimal integers and
// passed through without interpretation.
func parseRoundID(data map[string]interface{}) (*big.Int, error) {
	raw, ok := data["roundId"]
	if !ok || raw == nil {
		return nil, nil
	}

	var text string
	switch v := raw.(type) {
	case string:
		text = v
	case json.Number:
		text = v.String()
	default:
		return nil, fmt.Errorf("roundId must be a string or number, got %T", raw)
	}

	id, ok2 := new(big.Int).SetString(text, 10)
	if !ok2 || id.Sign() < 0 {
		return nil, fmt.Errorf("invalid roundId %q", text)
	}
	return id, nil
}
