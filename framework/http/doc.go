// Package http provides the request and response helpers used by controller
// beans.
//
// # Request
//
//	req := gohttp.NewRequest(r)
//
//	// Bind a JSON body into a struct
//	var payload struct {
//	    Name string `json:"name"`
//	}
//	if err := req.Bind(&payload); err != nil { ... }
//
//	item := req.Input("item", "all")     // query string + form body
//	id   := req.RouteParam("id")         // chi route params
//	tok  := req.BearerToken()
//
// # Response
//
//	res := gohttp.NewResponse(w)
//
//	res.Success(data)             // 200 {"data": ...}
//	res.Created(data)             // 201 {"data": ...}
//	res.Accepted(data)            // 202 {"data": ...}
//	res.Error(400, "bad input")   // {"message": "bad input"}
//	res.Fail(err)                 // status chosen from the container error kind
package http
