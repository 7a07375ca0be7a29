package backend

// Wire shapes of the Backend Service plan response (GET /api/plannings/cliente/mi-planning-semanas-dias).

type planResponse struct {
	PlanningID string         `json:"planningId"`
	Nombre     string         `json:"nombre"`
	Semanas    []weekResponse `json:"semanas"`
}

type weekResponse struct {
	ID         string                 `json:"_id"`
	WeekNumber int                    `json:"weekNumber"`
	StartDate  string                 `json:"startDate"`
	Days       map[string]dayResponse `json:"days"`
}

type dayResponse struct {
	ID       string            `json:"_id"`
	Day      string            `json:"day"`
	Fecha    string            `json:"fecha"`
	Sessions []sessionResponse `json:"sessions"`
}

type sessionResponse struct {
	ID        string             `json:"_id"`
	Name      string             `json:"name"`
	Exercises []exerciseResponse `json:"exercises"`
}

type exerciseResponse struct {
	ID         string        `json:"_id"`
	Name       string        `json:"name"`
	Exercise   string        `json:"exercise"`
	Series     string        `json:"series"`
	Image      string        `json:"image"`
	PlanningID string        `json:"planningId"`
	SessionID  string        `json:"sessionId"`
	Sets       []setResponse `json:"sets"`
}

type setResponse struct {
	ID           string        `json:"_id"`
	Weight       *float64      `json:"weight"`
	Reps         *int          `json:"reps"`
	Rest         *int          `json:"rest"`
	SessionID    string        `json:"sessionId"`
	RenderConfig *renderConfig `json:"renderConfig"`
}

type renderConfig struct {
	Campo1 string `json:"campo1"`
	Campo2 string `json:"campo2"`
	Campo3 string `json:"campo3,omitempty"`
}

// checkinRequest is the body of POST /api/plannings/{planningId}/session/{sessionId}/set/{setId}/checkin.
type checkinRequest struct {
	PesoCliente float64 `json:"pesocliente"`
	Reps        int     `json:"reps"`
	Comentario  string  `json:"comentario,omitempty"`
}
