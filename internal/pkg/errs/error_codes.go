/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request / Protocol Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrUnknownCommand indicates a WebSocket frame with an unrecognized type discriminator.
	ErrUnknownCommand = 1005

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Conversation and Message Business Logic Errors
const (
	// ErrConversationNotFound indicates that the referenced conversation does not exist.
	ErrConversationNotFound = 2101

	// ErrNotConversationMember indicates the acting user is not a member of the conversation.
	ErrNotConversationMember = 2102

	// ErrAlreadyMember indicates an invitee is already a member of the conversation.
	ErrAlreadyMember = 2103

	// ErrMessageNotFound indicates that the referenced message does not exist.
	ErrMessageNotFound = 2201

	// ErrNotMessageAuthor indicates the acting user did not author the referenced message.
	ErrNotMessageAuthor = 2202

	// ErrMessageContentTooLong indicates that the message content exceeded the maximum length limit.
	ErrMessageContentTooLong = 2203

	// ErrFileSizeTooLarge indicates an attachment exceeding the size limit.
	ErrFileSizeTooLarge = 2301

	// ErrAttachmentKeyInvalid indicates an attachment key outside the caller's conversations.
	ErrAttachmentKeyInvalid = 2302
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrUnauthorized indicates a missing, expired, or invalid bearer token.
	ErrUnauthorized = 3001

	// ErrInvalidUsername indicates a username that fails validation rules.
	ErrInvalidUsername = 3002

	// ErrInvalidPassword indicates a password that fails validation rules.
	ErrInvalidPassword = 3003

	// ErrUserAlreadyExists indicates the username is already taken.
	ErrUserAlreadyExists = 3004

	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = 3005

	// ErrUserNotFound indicates that the referenced user account does not exist.
	ErrUserNotFound = 3006

	// ErrDuplicateFriendRequest indicates a friend request that already exists between the pair.
	ErrDuplicateFriendRequest = 3101

	// ErrFriendRequestNotFound indicates an accept/reject for a request that does not exist.
	ErrFriendRequestNotFound = 3102

	// ErrPowChallengeRequired indicates the client must complete a Proof-of-Work challenge first.
	ErrPowChallengeRequired = 3201

	// ErrPowChallengeInvalid indicates that the PoW proof provided by the client is invalid or incorrect.
	ErrPowChallengeInvalid = 3202
)

// 4xxx: Generation Errors
const (
	// ErrGenerationRunning indicates a generation is already in flight for this user.
	ErrGenerationRunning = 4001

	// ErrNoGenerationToCancel indicates a cancel request while no generation is in flight.
	ErrNoGenerationToCancel = 4002

	// ErrModelNotFound indicates the referenced AI model is not registered.
	ErrModelNotFound = 4003

	// ErrModelQueryFailed indicates the model collaborator returned an error.
	ErrModelQueryFailed = 4004
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrStorageFailed indicates a database operation failed.
	ErrStorageFailed = 5001

	// ErrFileStorageFailed indicates an object-storage operation failed.
	ErrFileStorageFailed = 5002
)
