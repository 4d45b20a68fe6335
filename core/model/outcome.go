package model

// DispatchOutcome is the synchronous result of one dispatch attempt.
type DispatchOutcome struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message"`
	Destination Destination `json:"destination"`
	// StatusCode is the HTTP status returned by the device API, zero when the
	// request never got a response.
	StatusCode int   `json:"status_code,omitempty"`
	Err        error `json:"-"`
}

// ActuatorOutcome is the result of a generic actuator command.
type ActuatorOutcome struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Entity     string `json:"entity"`
	State      string `json:"state,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Err        error  `json:"-"`
}
