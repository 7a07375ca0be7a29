package testinternals

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gorilla/mux"
)

const TestToken = "test-token"

// SamplePlanJSON is a one week plan with a routine on wednesday 2024-05-01 (3 sets, each carrying
// its session id), a rest day, and a friday routine whose sets have no set ids.
const SamplePlanJSON = `{
  "planningId": "plan-1",
  "nombre": "Fuerza 12 semanas",
  "semanas": [
    {
      "_id": "week-1",
      "weekNumber": 1,
      "startDate": "2024-04-29T00:00:00.000Z",
      "days": {
        "miercoles": {
          "_id": "day-wed",
          "day": "Miércoles",
          "fecha": "2024-05-01T00:00:00.000Z",
          "sessions": [
            {
              "_id": "session-wed",
              "name": "Pierna",
              "exercises": [
                {
                  "_id": "ex-squat",
                  "name": "squat",
                  "exercise": "Sentadilla",
                  "series": "3 x 8",
                  "image": "https://img.example.com/squat.png",
                  "sets": [
                    {"_id": "set-1", "weight": 60, "reps": 8, "rest": 90, "sessionId": "session-wed", "renderConfig": {"campo1": "weight", "campo2": "reps"}},
                    {"_id": "set-2", "weight": 62.5, "reps": 8, "rest": 90, "sessionId": "session-wed", "renderConfig": {"campo1": "weight", "campo2": "reps"}},
                    {"_id": "set-3", "weight": 65, "reps": 6, "rest": 120, "sessionId": "session-wed", "renderConfig": {"campo1": "weight", "campo2": "reps"}}
                  ]
                }
              ]
            }
          ]
        },
        "jueves": {
          "_id": "day-thu",
          "day": "Jueves",
          "fecha": "2024-05-02T00:00:00.000Z",
          "sessions": []
        },
        "viernes": {
          "_id": "day-fri",
          "day": "Viernes",
          "fecha": "2024-05-03T00:00:00.000Z",
          "sessions": [
            {
              "_id": "session-fri",
              "name": "",
              "exercises": [
                {"name": "Dominadas", "series": "4 x 6"}
              ]
            }
          ]
        },
        "sabado": {
          "_id": "day-sat",
          "day": "Sábado",
          "fecha": "2024-05-04",
          "sessions": []
        }
      }
    }
  ]
}`

// RecordedCheckin is one check-in received by the FakeBackend.
type RecordedCheckin struct {
	PlanID        string
	SessionID     string
	SetID         string
	PesoCliente   float64 `json:"pesocliente"`
	Reps          int     `json:"reps"`
	Comentario    string  `json:"comentario"`
	Authorization string
}

// FakeBackend is an in-process Backend Service: it serves a fixed plan and records set check-ins.
type FakeBackend struct {
	Server *httptest.Server

	mutex       sync.Mutex
	planJSON    string
	planFetches int
	checkins    []RecordedCheckin
	failingSets map[string]int
	token       string
}

func NewFakeBackend(planJSON string) *FakeBackend {
	fb := &FakeBackend{
		planJSON:    planJSON,
		failingSets: make(map[string]int),
		token:       TestToken,
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/plannings/cliente/mi-planning-semanas-dias", fb.handlePlan).Methods("GET")
	r.HandleFunc("/api/plannings/{planningId}/session/{sessionId}/set/{setId}/checkin", fb.handleCheckin).Methods("POST")
	r.Use(drainAndCloseRequest, fb.authMiddleware)

	fb.Server = httptest.NewServer(r)
	return fb
}

func (fb *FakeBackend) URL() string {
	return fb.Server.URL
}

func (fb *FakeBackend) Close() {
	fb.Server.Close()
}

func (fb *FakeBackend) SetPlan(planJSON string) {
	fb.mutex.Lock()
	defer fb.mutex.Unlock()
	fb.planJSON = planJSON
}

// FailSet makes check-ins of setID answer with status; status 0 makes them succeed again.
func (fb *FakeBackend) FailSet(setID string, status int) {
	fb.mutex.Lock()
	defer fb.mutex.Unlock()
	if status == 0 {
		delete(fb.failingSets, setID)
		return
	}
	fb.failingSets[setID] = status
}

func (fb *FakeBackend) ClearFailures() {
	fb.mutex.Lock()
	defer fb.mutex.Unlock()
	fb.failingSets = make(map[string]int)
}

func (fb *FakeBackend) PlanFetches() int {
	fb.mutex.Lock()
	defer fb.mutex.Unlock()
	return fb.planFetches
}

func (fb *FakeBackend) Checkins() []RecordedCheckin {
	fb.mutex.Lock()
	defer fb.mutex.Unlock()
	return append([]RecordedCheckin(nil), fb.checkins...)
}

func (fb *FakeBackend) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+fb.token {
			http.Error(w, `{"message":"no autorizado"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// drainAndCloseRequest empties and closes the request body once the handler is done.
func drainAndCloseRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		if r.Body != nil {
			_, _ = io.Copy(io.Discard, r.Body)
			_ = r.Body.Close()
		}
	})
}

func (fb *FakeBackend) handlePlan(w http.ResponseWriter, _ *http.Request) {
	fb.mutex.Lock()
	fb.planFetches++
	planJSON := fb.planJSON
	fb.mutex.Unlock()

	if planJSON == "" {
		http.Error(w, `{"message":"no hay planning asignado"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(planJSON))
}

func (fb *FakeBackend) handleCheckin(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	checkin := RecordedCheckin{
		PlanID:        vars["planningId"],
		SessionID:     vars["sessionId"],
		SetID:         vars["setId"],
		Authorization: r.Header.Get("Authorization"),
	}
	if err := json.NewDecoder(r.Body).Decode(&checkin); err != nil {
		http.Error(w, `{"message":"bad body"}`, http.StatusBadRequest)
		return
	}

	fb.mutex.Lock()
	status, failing := fb.failingSets[checkin.SetID]
	if !failing {
		fb.checkins = append(fb.checkins, checkin)
	}
	fb.mutex.Unlock()

	if failing {
		http.Error(w, `{"message":"set checkin failed"}`, status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte(`{"message":"checkin guardado"}`))
}
