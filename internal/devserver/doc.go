/*
Package devserver runs a local stand-in for the remote app endpoint.

It speaks the same envelope as the real API: GET returns {"apps": [...]},
writes return the entity, and failures return {"result": "error", "text": ...}.
Tests mount Handler on an httptest server; the appsync dev-server command
serves it on a real address.

Responses can be forced with Store.SetOverride to exercise error paths, and
every received request is kept for inspection.
*/
package devserver
