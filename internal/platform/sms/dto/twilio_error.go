package dto

// TwilioError is the JSON body Twilio returns with 4xx/5xx responses.
type TwilioError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

// TwilioMessage is the subset of the created message resource we read.
type TwilioMessage struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}
