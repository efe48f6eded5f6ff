package utils

const (
	UserRegistered = "user registered successfully"
	UserLoggedIn   = "user logged in successfully"
	UserRetrieved  = "user profile retrieved"
	EmailVerified  = "email verified successfully"
	// same message whether or not the account exists
	VerificationSent = "if the account exists and is unverified, a verification email has been sent"

	EndpointCreated   = "endpoint created successfully"
	EndpointsListed   = "endpoints retrieved successfully"
	EndpointRetrieved = "endpoint retrieved successfully"
	EndpointUpdated   = "endpoint updated successfully"
	EndpointDeleted   = "endpoint deleted successfully"

	CheckCompleted  = "endpoint check completed"
	StatsRetrieved  = "stats retrieved successfully"
	StatusRetrieved = "status retrieved successfully"
	LogsRetrieved   = "logs retrieved successfully"

	NotificationsListed  = "notifications retrieved successfully"
	NotificationMarked   = "notification marked as read"
	NotificationsCleared = "all read notifications cleared"
)
