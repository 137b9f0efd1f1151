package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"

	"github.com/andy/talentsink/internal/domain"
	"github.com/andy/talentsink/internal/service"
)

// handleListTimesheets serves both the candidate and admin listings. The
// service restricts candidates to their own rows.
func (a *API) handleListTimesheets(w http.ResponseWriter, r *http.Request) {
	verr := &domain.ValidationError{}
	page, pageNum, perPage := pageQuery(r, verr)
	q := service.TimesheetQuery{
		CandidateID: int64Query(r, "candidateId", verr),
		Status:      timesheetStatusQuery(r, verr),
		From:        dateQuery(r, "from", verr),
		To:          dateQuery(r, "to", verr),
		Page:        page,
	}
	if err := verr.OrNil(); err != nil {
		a.writeError(w, r, err)
		return
	}

	rows, total, err := a.svc.Timesheets.List(r.Context(), actorFrom(r), q)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	render.JSON(w, r, ListResponse{
		Items:   newTimesheetList(rows, a.now()),
		Total:   total,
		Page:    pageNum,
		PerPage: perPage,
	})
}

func (a *API) handleCreateTimesheet(w http.ResponseWriter, r *http.Request) {
	req := &CreateTimesheetRequest{}
	if err := render.Bind(r, req); err != nil {
		a.writeError(w, r, bindError(err))
		return
	}

	ts, err := a.svc.Timesheets.Create(r.Context(), actorFrom(r), req.input())
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newTimesheetResponse(ts, a.now()))
}

func (a *API) handleGetTimesheet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	ts, err := a.svc.Timesheets.Get(r.Context(), actorFrom(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	render.JSON(w, r, newTimesheetResponse(ts, a.now()))
}

func (a *API) handleUpdateTimesheet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	req := &UpdateTimesheetRequest{}
	if err := render.Bind(r, req); err != nil {
		a.writeError(w, r, bindError(err))
		return
	}

	ts, err := a.svc.Timesheets.Update(r.Context(), actorFrom(r), id, service.UpdateTimesheetInput{
		Hours: req.toDomain(),
		Notes: req.Notes,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	render.JSON(w, r, newTimesheetResponse(ts, a.now()))
}

func (a *API) handleDeleteTimesheet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := a.svc.Timesheets.Delete(r.Context(), actorFrom(r), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSubmitTimesheet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	ts, err := a.svc.Timesheets.Submit(r.Context(), actorFrom(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	render.JSON(w, r, newTimesheetResponse(ts, a.now()))
}

func (a *API) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	ts, err := a.svc.Timesheets.Approve(r.Context(), actorFrom(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	render.JSON(w, r, newTimesheetResponse(ts, a.now()))
}

func (a *API) handleReject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	req := &RejectRequest{}
	if err := render.Bind(r, req); err != nil {
		a.writeError(w, r, bindError(err))
		return
	}

	ts, err := a.svc.Timesheets.Reject(r.Context(), actorFrom(r), id, req.RejectionReason)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	render.JSON(w, r, newTimesheetResponse(ts, a.now()))
}

func (a *API) handleRevert(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	// Body is optional
	req := &RevertRequest{}
	if r.ContentLength > 0 {
		if err := render.Bind(r, req); err != nil {
			a.writeError(w, r, bindError(err))
			return
		}
	}

	ts, err := a.svc.Timesheets.Revert(r.Context(), actorFrom(r), id, strings.TrimSpace(req.Reason))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	render.JSON(w, r, newTimesheetResponse(ts, a.now()))
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	rows, err := a.svc.Timesheets.History(r.Context(), actorFrom(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	render.JSON(w, r, newHistoryList(rows))
}

func (a *API) handleBiWeekly(w http.ResponseWriter, r *http.Request) {
	verr := &domain.ValidationError{}
	page, pageNum, perPage := pageQuery(r, verr)
	q := service.BiWeeklyQuery{
		CandidateID: int64Query(r, "candidateId", verr),
		From:        dateQuery(r, "from", verr),
		To:          dateQuery(r, "to", verr),
	}
	if err := verr.OrNil(); err != nil {
		a.writeError(w, r, err)
		return
	}

	periods, err := a.svc.Reports.BiWeekly(r.Context(), actorFrom(r), q)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	render.JSON(w, r, ListResponse{
		Items:   newBiWeeklyList(pageOf(periods, page), a.now()),
		Total:   len(periods),
		Page:    pageNum,
		PerPage: perPage,
	})
}

func monthlyQuery(r *http.Request) (service.MonthlyQuery, error) {
	verr := &domain.ValidationError{}
	q := service.MonthlyQuery{
		CandidateID: int64Query(r, "candidateId", verr),
		Year:        intQuery(r, "year", 1970, 9999, verr),
	}
	q.Month = time.Month(intQuery(r, "month", 1, 12, verr))
	return q, verr.OrNil()
}

func (a *API) handleMonthly(w http.ResponseWriter, r *http.Request) {
	q, err := monthlyQuery(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	verr := &domain.ValidationError{}
	page, pageNum, perPage := pageQuery(r, verr)
	if err := verr.OrNil(); err != nil {
		a.writeError(w, r, err)
		return
	}

	periods, err := a.svc.Reports.Monthly(r.Context(), actorFrom(r), q)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	render.JSON(w, r, ListResponse{
		Items:   newMonthlyList(pageOf(periods, page), a.now()),
		Total:   len(periods),
		Page:    pageNum,
		PerPage: perPage,
	})
}
