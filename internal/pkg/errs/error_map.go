/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
// Errors delivered over WebSocket carry only Code and Message; Status applies to REST responses.
var errorMap = map[int]CustomError{
	// 1xxx: General Request / Protocol Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrUnknownCommand:        {Code: ErrUnknownCommand, Message: "Unknown command type: %s"},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large."},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Conversation and Message Business Logic Errors
	ErrConversationNotFound:  {Code: ErrConversationNotFound, Message: "Conversation not found."},
	ErrNotConversationMember: {Code: ErrNotConversationMember, Message: "You are not a member of this conversation."},
	ErrAlreadyMember:         {Code: ErrAlreadyMember, Message: "User is already in this conversation."},
	ErrMessageNotFound:       {Code: ErrMessageNotFound, Message: "Message not found."},
	ErrNotMessageAuthor:      {Code: ErrNotMessageAuthor, Message: "You can only modify your own messages."},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long."},
	ErrFileSizeTooLarge:      {Code: ErrFileSizeTooLarge, Message: "File is too large."},
	ErrAttachmentKeyInvalid:  {Code: ErrAttachmentKeyInvalid, Message: "Invalid attachment."},

	// 3xxx: User, Session, and Security Errors
	ErrUnauthorized:           {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrInvalidUsername:        {Code: ErrInvalidUsername, Message: "Invalid username."},
	ErrInvalidPassword:        {Code: ErrInvalidPassword, Message: "Invalid password."},
	ErrUserAlreadyExists:      {Code: ErrUserAlreadyExists, Message: "Username is already taken."},
	ErrInvalidCredentials:     {Code: ErrInvalidCredentials, Message: "Incorrect username or password."},
	ErrUserNotFound:           {Code: ErrUserNotFound, Message: "Account not found."},
	ErrDuplicateFriendRequest: {Code: ErrDuplicateFriendRequest, Message: "Friend request already exists."},
	ErrFriendRequestNotFound:  {Code: ErrFriendRequestNotFound, Message: "Friend request not found."},
	ErrPowChallengeRequired:   {Code: ErrPowChallengeRequired, Message: "Verification required. Please try again."},
	ErrPowChallengeInvalid:    {Code: ErrPowChallengeInvalid, Message: "Verification failed. Please try again."},

	// 4xxx: Generation Errors
	ErrGenerationRunning:    {Code: ErrGenerationRunning, Message: "A response is already being generated for you."},
	ErrNoGenerationToCancel: {Code: ErrNoGenerationToCancel, Message: "No generation to cancel."},
	ErrModelNotFound:        {Code: ErrModelNotFound, Message: "Unknown AI model."},
	ErrModelQueryFailed:     {Code: ErrModelQueryFailed, Message: "The model failed to respond. Please try again."},

	// 5xxx: Internal System Errors
	ErrUnknown:           {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStorageFailed:     {Code: ErrStorageFailed, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrFileStorageFailed: {Code: ErrFileStorageFailed, Message: "File upload failed. Please try again."},
}
