// Package taskboardsdk is a typed Go client for the taskboard API.
//
// The Client covers the unauthenticated surface and produces Sessions.
// A Session holds an access/refresh token pair and transparently
// refreshes once, replaying the original request, when the access token
// expires.
//
//	client := taskboardsdk.NewClient("http://localhost:8080")
//	session, err := client.Login(ctx, taskboardsdk.LoginRequest{
//		Email:    "alice@example.com",
//		Password: "hunter22",
//	})
//	if err != nil {
//		return err
//	}
//	task, err := session.CreateTask(ctx, taskboardsdk.TaskCreateRequest{
//		Title: "write the report",
//	})
package taskboardsdk
