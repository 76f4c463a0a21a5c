// Package integrations is a client for the integration-management REST API.
//
// # Overview
//
// The client fetches the integration catalogue in a single request and then
// drives per-integration lifecycle calls against the hyperlinks the server
// returned with each item. All requests use HTTP basic authentication.
//
// # API Endpoints Used
//
// Catalogue:
//   - GET    /ic/api/integration/v1/integrations
//
// Archives:
//   - POST   /ic/api/integration/v1/integrations/archive (multipart, field "file")
//   - PUT    /ic/api/integration/v1/integrations/archive (multipart, field "file")
//   - GET    {href}/archive
//
// Lifecycle:
//   - POST   {href} with X-HTTP-Method-Override: PATCH
//   - DELETE {href}
//
// # Security
//
// Certificate verification is disabled unless Config.TLSVerify is set. The
// password is never logged; the Authorization header is redacted from wire
// traces.
package integrations
