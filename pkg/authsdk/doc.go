/*
Package authsdk provides a client SDK for the sessiond session service.

# SDKClient vs Session

  - SDKClient: unauthenticated operations (login, refresh, validate, health)
  - Session: operations that need a bearer token, with automatic refresh

	client := authsdk.NewSDKClient("https://auth.example.com")
	client.ClientID = "web"

	session, err := client.AuthenticateWithPassword(ctx, "ada@example.com", "secret", "laptop")

# Device Limit

Each user may hold a bounded number of logged-in devices. When the limit is
reached, login fails with a *DeviceLimitError listing the active devices. The
caller picks one and logs in again, evicting it:

	session, err := client.AuthenticateWithPassword(ctx, email, password, "phone")
	var limit *authsdk.DeviceLimitError
	if errors.As(err, &limit) {
		victim := limit.ActiveDevices[0].DeviceID
		session, err = client.AuthenticateEvictingDevice(ctx, email, password, "phone", victim)
	}

# Automatic Token Refresh

Refresh tokens are single use. Session rotates the pair 30 seconds before the
access token expires and keeps the new refresh token. Sharing one refresh
token between two Sessions makes the second rotation fail with invalid_token.

# Errors

Non-2xx responses are returned as *APIError (Code holds values such as
invalid_token or too_many_attempts) or *DeviceLimitError for 409.

# Thread Safety

Sessions are safe for concurrent use.
*/
package authsdk
