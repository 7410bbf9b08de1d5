package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bloodlink/internal/donation/service"
	"bloodlink/internal/donation/store/healthcheck"
	"bloodlink/internal/donation/store/process"
	"bloodlink/internal/donation/store/registration"
	invservice "bloodlink/internal/inventory/service"
	"bloodlink/internal/inventory/store/threshold"
	"bloodlink/internal/inventory/store/unit"
	refstore "bloodlink/internal/reference/store"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/requestcontext"
)

// donationEnv holds the wired pipeline backing a test router so tests can
// reach past HTTP when asserting side effects such as unit materialization.
type donationEnv struct {
	router    http.Handler
	ref       *refstore.InMemory
	inventory *invservice.Service
}

func TestRegistrationLifecycleViaHandlers(t *testing.T) {
	env := newDonationEnv(t)
	donor := uuid.New()
	staff := uuid.New()

	bundle := createRegistration(t, env, donor, map[string]any{
		"blood_group_id": groupID(t, env, id.BloodTypeOPos),
		"donation_type":  "whole_blood",
		"scheduled_at":   time.Now().Add(48 * time.Hour),
	}, http.StatusCreated)

	if bundle.Registration.Status != "approved" {
		t.Fatalf("expected registration approved, got %q", bundle.Registration.Status)
	}
	if bundle.HealthCheck.Status != "pending" || bundle.Process.Status != "pending" {
		t.Fatalf("expected pending health check and process, got %q / %q",
			bundle.HealthCheck.Status, bundle.Process.Status)
	}
	if bundle.Registration.HealthCheckID != bundle.HealthCheck.ID ||
		bundle.Registration.ProcessID != bundle.Process.ID {
		t.Fatalf("expected registration to cross-reference its health check and process")
	}

	// Staff records passing vitals.
	rec := do(t, env, staff, "staff", http.MethodPut,
		"/donations/health-checks/"+bundle.HealthCheck.ID, map[string]any{
			"vitals": map[string]any{
				"weight_kg":       70,
				"temperature_c":   36.6,
				"heart_rate_bpm":  64,
				"blood_pressure":  map[string]int{"systolic": 120, "diastolic": 80},
				"hemoglobin_g_dl": 14.2,
			},
			"status": "approved",
		})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 recording health check, got %d: %s", rec.Code, rec.Body)
	}

	// The approved health check checks the donor in and cascades the
	// collection approval.
	getRec := do(t, env, donor, "donor", http.MethodGet,
		"/donations/registrations/"+bundle.Registration.ID, nil)
	if getRec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching registration, got %d", getRec.Code)
	}
	var reg struct {
		Status string `json:"status"`
	}
	decode(t, getRec.Body, &reg)
	if reg.Status != "checked_in" {
		t.Fatalf("expected registration checked_in after approved vitals, got %q", reg.Status)
	}

	// A direct re-approval changes nothing further; 70 kg capped at 450 ml
	// when the cascade stamped the volume.
	apprRec := do(t, env, staff, "staff", http.MethodPatch,
		"/donations/processes/"+bundle.Process.ID, map[string]any{"status": "approved"})
	if apprRec.Code != http.StatusOK {
		t.Fatalf("expected 200 approving process, got %d: %s", apprRec.Code, apprRec.Body)
	}
	var proc struct {
		Status      string    `json:"status"`
		VolumeML    float64   `json:"volume_collected_ml"`
		CollectedAt time.Time `json:"collected_at"`
	}
	decode(t, apprRec.Body, &proc)
	if proc.Status != "approved" {
		t.Fatalf("expected approved process, got %q", proc.Status)
	}
	if proc.VolumeML != 450 {
		t.Fatalf("expected 450 ml collected for a 70 kg donor, got %v", proc.VolumeML)
	}
	if proc.CollectedAt.IsZero() {
		t.Fatalf("expected collected_at to be stamped on approval")
	}

	// Exactly one whole-blood unit exists despite approval arriving twice.
	procID, err := id.ParseDonationProcessID(bundle.Process.ID)
	if err != nil {
		t.Fatalf("bad process id in response: %v", err)
	}
	units, err := env.inventory.UnitsForProcess(context.Background(), procID)
	if err != nil {
		t.Fatalf("listing units for process: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("expected 1 blood unit after approval, got %d", len(units))
	}

	// The donor's donation history lists the approved process.
	histRec := do(t, env, donor, "donor", http.MethodGet, "/donations/processes", nil)
	if histRec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing processes, got %d", histRec.Code)
	}
	var history struct {
		Processes []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"donation_processes"`
	}
	decode(t, histRec.Body, &history)
	if len(history.Processes) != 1 || history.Processes[0].ID != bundle.Process.ID {
		t.Fatalf("expected the approved process in the donor's history, got %+v", history.Processes)
	}
}

func TestScreeningRejectionReturnsCreatedIDs(t *testing.T) {
	env := newDonationEnv(t)
	donor := uuid.New()

	rec := do(t, env, donor, "donor", http.MethodPost, "/donations/registrations", map[string]any{
		"blood_group_id": groupID(t, env, id.BloodTypeAPos),
		"donation_type":  "whole_blood",
		"scheduled_at":   time.Now().Add(24 * time.Hour),
		"screening": []map[string]any{
			{"question": "Recent tattoo or piercing?", "answer": true},
		},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for disqualifying screening, got %d", rec.Code)
	}

	var resp struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	decode(t, rec.Body, &resp)
	if resp.Error != "eligibility_rejected" {
		t.Fatalf("expected eligibility_rejected error, got %q", resp.Error)
	}
	regID := resp.Details["registration_id"]
	if regID == "" || resp.Details["health_check_id"] == "" || resp.Details["donation_process_id"] == "" {
		t.Fatalf("expected created record IDs in details, got %v", resp.Details)
	}

	// The rejection is on file and locked against rescheduling.
	reschedRec := do(t, env, donor, "donor", http.MethodPatch,
		"/donations/registrations/"+regID, map[string]any{
			"scheduled_at": time.Now().Add(72 * time.Hour),
		})
	if reschedRec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 rescheduling a rejected registration, got %d", reschedRec.Code)
	}
}

func TestDonorCannotSeeOthersRegistration(t *testing.T) {
	env := newDonationEnv(t)
	owner := uuid.New()
	stranger := uuid.New()
	staff := uuid.New()

	bundle := createRegistration(t, env, owner, map[string]any{
		"blood_group_id": groupID(t, env, id.BloodTypeBNeg),
		"donation_type":  "plasma",
		"scheduled_at":   time.Now().Add(24 * time.Hour),
	}, http.StatusCreated)

	rec := do(t, env, stranger, "donor", http.MethodGet,
		"/donations/registrations/"+bundle.Registration.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another donor's registration, got %d", rec.Code)
	}

	staffRec := do(t, env, staff, "staff", http.MethodGet,
		"/donations/registrations/"+bundle.Registration.ID, nil)
	if staffRec.Code != http.StatusOK {
		t.Fatalf("expected 200 for staff fetching any registration, got %d", staffRec.Code)
	}
}

func TestCreateRegistrationRejectsBadPayload(t *testing.T) {
	env := newDonationEnv(t)
	donor := uuid.New()

	rec := do(t, env, donor, "donor", http.MethodPost, "/donations/registrations", map[string]any{
		"blood_group_id": "not-a-uuid",
		"donation_type":  "whole_blood",
		"scheduled_at":   time.Now().Add(24 * time.Hour),
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed blood_group_id, got %d", rec.Code)
	}
}

// === helpers ===

type bundleResponse struct {
	Registration struct {
		ID            string `json:"id"`
		Status        string `json:"status"`
		HealthCheckID string `json:"health_check_id"`
		ProcessID     string `json:"donation_process_id"`
	} `json:"registration"`
	HealthCheck struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"health_check"`
	Process struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"donation_process"`
}

func newDonationEnv(t *testing.T) *donationEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ref := refstore.NewInMemory()

	invSvc, err := invservice.New(unit.NewInMemory(), threshold.NewInMemory(), ref,
		invservice.WithLogger(logger))
	if err != nil {
		t.Fatalf("building inventory service: %v", err)
	}

	svc, err := service.New(
		registration.NewInMemory(),
		healthcheck.NewInMemory(),
		process.NewInMemory(),
		ref,
		service.WithLogger(logger),
		service.WithUnitCreator(invSvc),
	)
	if err != nil {
		t.Fatalf("building donation service: %v", err)
	}

	h := New(svc, logger)
	r := chi.NewRouter()
	r.Use(actorFromHeaders)
	h.Register(r)
	h.RegisterStaff(r)
	return &donationEnv{router: r, ref: ref, inventory: invSvc}
}

// actorFromHeaders stands in for the auth middleware: the test sets the
// actor via X-Test-Actor / X-Test-Role headers.
func actorFromHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if actorID, err := id.ParseUserID(r.Header.Get("X-Test-Actor")); err == nil {
			ctx = requestcontext.WithActor(ctx, actorID, requestcontext.Role(r.Header.Get("X-Test-Role")))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func do(t *testing.T, env *donationEnv, actor uuid.UUID, role, method, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshaling payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Actor", actor.String())
	req.Header.Set("X-Test-Role", role)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func createRegistration(t *testing.T, env *donationEnv, donor uuid.UUID, payload map[string]any, wantStatus int) bundleResponse {
	t.Helper()
	rec := do(t, env, donor, "donor", http.MethodPost, "/donations/registrations", payload)
	if rec.Code != wantStatus {
		t.Fatalf("expected %d creating registration, got %d: %s", wantStatus, rec.Code, rec.Body)
	}
	var bundle bundleResponse
	decode(t, rec.Body, &bundle)
	return bundle
}

func groupID(t *testing.T, env *donationEnv, bloodType id.BloodType) string {
	t.Helper()
	g, err := env.ref.GroupByType(context.Background(), bloodType)
	if err != nil {
		t.Fatalf("looking up blood group %s: %v", bloodType, err)
	}
	return g.ID.String()
}

func decode(t *testing.T, body io.Reader, v any) {
	t.Helper()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
}
