/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid or missing parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Content-Type must be application/json", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Invalid JSON format or incorrect field types.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request body contains extra content.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Request rate limit exceeded. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Room Lifecycle and Membership Errors
	ErrInvalidRoomConfig:   {Code: ErrInvalidRoomConfig, Message: "Room configuration is invalid: %s", Status: http.StatusBadRequest},
	ErrRoomNotFound:        {Code: ErrRoomNotFound, Message: "The requested room does not exist", Status: http.StatusNotFound},
	ErrRoomFull:            {Code: ErrRoomFull, Message: "The room has reached its maximum capacity", Status: http.StatusBadRequest},
	ErrWrongPassword:       {Code: ErrWrongPassword, Message: "Incorrect room password.", Status: http.StatusForbidden},
	ErrParticipantBlocked:  {Code: ErrParticipantBlocked, Message: "You have been removed from this room and cannot rejoin.", Status: http.StatusForbidden},
	ErrNotHost:             {Code: ErrNotHost, Message: "Only the host can perform this action.", Status: http.StatusForbidden},
	ErrRoomNotJoinable:     {Code: ErrRoomNotJoinable, Message: "The room is no longer accepting participants.", Status: http.StatusBadRequest},
	ErrParticipantNotFound: {Code: ErrParticipantNotFound, Message: "Participant %s not found in this room.", Status: http.StatusNotFound},
	ErrNotEnoughPlayers:    {Code: ErrNotEnoughPlayers, Message: "At least %d joined players are required to start.", Status: http.StatusBadRequest},
	ErrRankedNotReady:      {Code: ErrRankedNotReady, Message: "All participants must be ready for ranked mode", Status: http.StatusBadRequest},
	ErrNoEligibleQuestion:  {Code: ErrNoEligibleQuestion, Message: "No question is available for this topic and difficulty.", Status: http.StatusBadRequest},
	ErrInvalidRoomState:    {Code: ErrInvalidRoomState, Message: "Operation is not allowed while the room is %s.", Status: http.StatusBadRequest},

	// 3xxx: Battle and Submission Errors
	ErrBattleNotStarted:     {Code: ErrBattleNotStarted, Message: "Battle has not started", Status: http.StatusBadRequest},
	ErrBattleEnded:          {Code: ErrBattleEnded, Message: "Battle has already ended", Status: http.StatusBadRequest},
	ErrTimeLimitExceeded:    {Code: ErrTimeLimitExceeded, Message: "Time limit exceeded", Status: http.StatusBadRequest},
	ErrNoTestCases:          {Code: ErrNoTestCases, Message: "No test cases available", Status: http.StatusBadRequest},
	ErrQuestionNotFound:     {Code: ErrQuestionNotFound, Message: "Question not found", Status: http.StatusNotFound},
	ErrSolutionNotAvailable: {Code: ErrSolutionNotAvailable, Message: "No archived solution is available for this battle.", Status: http.StatusNotFound},

	// 4xxx: Judge Integration Errors
	ErrUnsupportedLanguage: {Code: ErrUnsupportedLanguage, Message: "Unsupported language", Status: http.StatusBadRequest},
	ErrInputMalformed:      {Code: ErrInputMalformed, Message: "Testcase input is malformed: %s", Status: http.StatusBadRequest},
	ErrJudgeTransport:      {Code: ErrJudgeTransport, Message: "Judge service request failed.", Status: http.StatusBadRequest},
	ErrJudgeTimeout:        {Code: ErrJudgeTimeout, Message: "Judge service request timed out.", Status: http.StatusBadRequest},

	// 5xxx: User, Session, and Security Errors
	ErrUnauthorized: {Code: ErrUnauthorized, Message: "Authentication failed. Missing or invalid token.", Status: http.StatusUnauthorized},

	// 9xxx: Internal System Errors
	ErrUnknown:       {Code: ErrUnknown, Message: "An unexpected server error occurred.", Status: http.StatusInternalServerError},
	ErrStorage:       {Code: ErrStorage, Message: "A storage error occurred. Please try again.", Status: http.StatusInternalServerError},
	ErrArchiveFailed: {Code: ErrArchiveFailed, Message: "Solution archive service failed. Please try again.", Status: http.StatusInternalServerError},
}
