// Package http exposes the marketplace over JSON/HTTP.
//
// Public routes need no credentials:
//   - GET /apartments[?entrepreneurId=], GET /apartments/{id}: listing catalog
//     exchanging the `apartmentDTO` payload.
//   - GET /apartments/{id}/blocked-dates: calendar days covered by CONFIRMED
//     bookings, as YYYY-MM-DD strings.
//   - GET /apartments/{id}/quote?startDate=&endDate=: price breakdown of a stay.
//   - GET /apartments/{id}/reviews, GET /sliders.
//   - POST /users: sign-up. POST /contacts: contact form.
//
// Every other route requires an `Authorization: Bearer <jwt>` header. The
// token subject is resolved to a user whose stored role drives authorization:
//   - GET /bookings[?userId=&apartmentId=&entrepreneurId=&status=], POST /bookings,
//     GET /bookings/{id}, PATCH /bookings/{id} with body {"status": "..."}.
//     Booking responses embed user{username,balance} and
//     apartment{title,pricePerNight,entrepreneurId}.
//   - POST /apartments, PUT /apartments/{id}, DELETE /apartments/{id}.
//   - POST /apartments/{id}/reviews, DELETE /reviews/{id}.
//   - GET /users, GET /users/me, GET|PUT|DELETE /users/{id},
//     POST /users/{id}/deposits {"amount"}, GET /users/{id}/ledger.
//   - POST /sliders, PUT|DELETE /sliders/{id}, GET /contacts, DELETE /contacts/{id}.
//
// Money is encoded as decimal strings. Errors share one body shape,
// {"error_code","message","errors"}, where errors maps fields to messages.
package http
