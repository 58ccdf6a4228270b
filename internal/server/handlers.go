package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/exam-grader/internal/db"
	"github.com/jonathan/exam-grader/internal/pipeline"
	"github.com/jonathan/exam-grader/internal/types"
)

// maxBatchSize bounds a single batch request
const maxBatchSize = 100

// gradeResponse is the payload returned for a grading request
type gradeResponse struct {
	RunID      string                `json:"run_id,omitempty"`
	Evaluation *types.ExamEvaluation `json:"evaluation"`
}

// handleGrade grades one submission synchronously
func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	var sub types.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := sub.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()

	var runID uuid.UUID
	if s.db != nil {
		var err error
		runID, err = s.db.CreateRun(ctx, sub.ExamType, sub.AudioRef)
		if err != nil {
			// Persistence is best effort for the API too
			runID = uuid.Nil
		}
	}

	eval, err := s.evaluator.Evaluate(ctx, &sub)
	if s.db != nil && runID != uuid.Nil {
		if eval != nil {
			_ = s.db.SaveEvaluation(ctx, runID, eval)
		}
		_ = s.db.CompleteRun(ctx, runID, runStatus(eval))
	}
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	resp := gradeResponse{Evaluation: eval}
	if runID != uuid.Nil {
		resp.RunID = runID.String()
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// batchResponseItem is one entry in a batch grading response
type batchResponseItem struct {
	Index      int                   `json:"index"`
	Evaluation *types.ExamEvaluation `json:"evaluation,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// handleBatch grades a set of submissions concurrently
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var subs []types.Submission
	if err := json.NewDecoder(r.Body).Decode(&subs); err != nil {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(subs) == 0 {
		s.errorResponse(w, http.StatusBadRequest, "batch contains no submissions")
		return
	}
	if len(subs) > maxBatchSize {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("batch exceeds %d submissions", maxBatchSize))
		return
	}
	for i := range subs {
		if err := subs[i].Validate(); err != nil {
			s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("submission %d: %v", i, err))
			return
		}
	}

	results, err := pipeline.RunBatch(r.Context(), s.evaluator, subs, pipeline.DefaultBatchConcurrency, nil)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	items := make([]batchResponseItem, len(results))
	for i, result := range results {
		items[i] = batchResponseItem{Index: result.Index, Evaluation: result.Evaluation}
		if result.Err != nil {
			items[i].Error = result.Err.Error()
		}
	}
	s.jsonResponse(w, http.StatusOK, items)
}

// handleListRuns lists recent grading runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "no database configured")
		return
	}

	filters := db.RunFilters{
		ExamType: types.ExamType(r.URL.Query().Get("exam_type")),
		Status:   r.URL.Query().Get("status"),
	}
	runs, err := s.db.ListRuns(r.Context(), filters)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.jsonResponse(w, http.StatusOK, runs)
}

// handleGetRun returns one grading run
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "no database configured")
		return
	}
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid run id")
		return
	}

	run, err := s.db.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if run == nil {
		s.errorResponse(w, http.StatusNotFound, "run not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

// handleGetEvaluation returns the stored evaluation for a run
func (s *Server) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "no database configured")
		return
	}
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid run id")
		return
	}

	eval, err := s.db.GetEvaluation(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if eval == nil {
		s.errorResponse(w, http.StatusNotFound, "evaluation not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, eval)
}

// handleDeleteRun deletes a grading run and its evaluation
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "no database configured")
		return
	}
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid run id")
		return
	}

	if err := s.db.DeleteRun(r.Context(), runID); err != nil {
		s.errorResponse(w, http.StatusNotFound, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func runStatus(eval *types.ExamEvaluation) string {
	if eval == nil {
		return db.RunStatusErrored
	}
	switch eval.Status {
	case types.StatusGraded:
		return db.RunStatusGraded
	case types.StatusParseFailure:
		return db.RunStatusParseFailure
	default:
		return db.RunStatusErrored
	}
}
