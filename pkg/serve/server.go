// Package serve exposes the matcher and the catalog scanner as a
// newline-delimited JSON protocol over a reader/writer pair (stdin/stdout).
package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/praetorian-inc/matchindex/pkg/matcher"
	"github.com/praetorian-inc/matchindex/pkg/pattern"
	"github.com/praetorian-inc/matchindex/pkg/scanner"
)

// Version is the server protocol version
const Version = "1.0.0"

// Server manages the streaming scanner
type Server struct {
	core    *scanner.Core
	encoder *json.Encoder
	decoder *json.Decoder
	ctx     context.Context
}

// NewServer creates a new streaming server
func NewServer(core *scanner.Core, in io.Reader, out io.Writer) *Server {
	return &Server{
		core:    core,
		encoder: json.NewEncoder(out),
		decoder: json.NewDecoder(bufio.NewReader(in)),
		ctx:     context.Background(),
	}
}

// Run starts the server main loop. It returns nil when the input ends or a
// close request arrives, and ctx.Err() when ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.ctx = ctx
	s.sendReady()

	reqChan := make(chan Request, 1)
	errChan := make(chan error, 1)

	go func() {
		for {
			var req Request
			if err := s.decoder.Decode(&req); err != nil {
				errChan <- err
				return
			}
			select {
			case reqChan <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errChan:
			// Drain any pending requests before handling EOF
			for {
				select {
				case req := <-reqChan:
					if s.processRequest(req) {
						return nil
					}
				default:
					if err == io.EOF {
						return nil
					}
					s.sendError("decode", "bad_request", err.Error())
					return nil
				}
			}
		case req := <-reqChan:
			if s.processRequest(req) {
				return nil
			}
		}
	}
}

// processRequest handles a single request and returns true if the server should exit
func (s *Server) processRequest(req Request) bool {
	switch req.Type {
	case "match_all":
		s.handleMatchAll(req.Payload)
	case "match_capture_group_all":
		s.handleMatchCaptureGroupAll(req.Payload)
	case "scan":
		s.handleScan(req.Payload)
	case "scan_batch":
		s.handleScanBatch(req.Payload)
	case "close":
		return true
	default:
		s.sendError("unknown", "bad_request", "unknown request type: "+req.Type)
	}
	return false
}

func (s *Server) sendReady() {
	s.sendData("ready", ReadyData{Version: Version, Patterns: len(s.core.Patterns())})
}

// compilePayload decodes a match payload and compiles its pattern.
func compilePayload(payload json.RawMessage) (*MatchPayload, *pattern.Pattern, error) {
	var p MatchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, nil, err
	}

	engine, err := pattern.ParseEngine(p.Engine)
	if err != nil {
		return nil, nil, err
	}

	var compiled *pattern.Pattern
	if p.Flags == "" {
		compiled, err = pattern.Parse(p.Pattern, pattern.WithEngine(engine))
	} else {
		compiled, err = pattern.Compile(p.Pattern, pattern.WithEngine(engine), pattern.WithFlags(p.Flags))
	}
	if err != nil {
		return nil, nil, err
	}
	return &p, compiled, nil
}

func (s *Server) handleMatchAll(payload json.RawMessage) {
	const reqType = "match_all"

	p, compiled, err := compilePayload(payload)
	if err != nil {
		s.sendError(reqType, "bad_request", err.Error())
		return
	}

	occurrences, err := matcher.MatchAll(p.Text, compiled)
	if err != nil {
		s.sendError(reqType, errorCode(err), err.Error())
		return
	}
	s.sendData(reqType, MatchAllData{Occurrences: occurrences})
}

func (s *Server) handleMatchCaptureGroupAll(payload json.RawMessage) {
	const reqType = "match_capture_group_all"

	p, compiled, err := compilePayload(payload)
	if err != nil {
		s.sendError(reqType, "bad_request", err.Error())
		return
	}

	groups, err := matcher.MatchCaptureGroupAll(p.Text, compiled)
	if err != nil {
		s.sendError(reqType, errorCode(err), err.Error())
		return
	}
	s.sendData(reqType, CaptureGroupsData{CaptureGroups: groups})
}

func (s *Server) handleScan(payload json.RawMessage) {
	var p ScanPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("scan", "bad_request", err.Error())
		return
	}

	result, err := s.core.Scan(s.ctx, p.Content, p.Source)
	if err != nil {
		s.sendError("scan", errorCode(err), err.Error())
		return
	}
	s.sendData("scan", result)
}

func (s *Server) handleScanBatch(payload json.RawMessage) {
	var p ScanBatchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("scan_batch", "bad_request", err.Error())
		return
	}

	result, err := s.core.ScanBatch(s.ctx, p.Items)
	if err != nil {
		s.sendError("scan_batch", errorCode(err), err.Error())
		return
	}
	s.sendData("scan_batch", result)
}

func (s *Server) sendData(reqType string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.sendError(reqType, "", err.Error())
		return
	}
	s.encoder.Encode(Response{
		Success: true,
		Type:    reqType,
		Data:    data,
	})
}

func (s *Server) sendError(reqType, code, msg string) {
	s.encoder.Encode(Response{
		Success: false,
		Type:    reqType,
		Error:   msg,
		Code:    code,
	})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, pattern.ErrInvalidPattern):
		return "invalid_pattern"
	case errors.Is(err, matcher.ErrTimeout):
		return "timeout"
	default:
		return ""
	}
}
