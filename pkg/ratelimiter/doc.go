// Package ratelimiter throttles the billing endpoints that call Paystack.
//
// A Bucket holds Capacity tokens and gains RefillRate tokens every
// RefillInterval. MemoryStore keeps buckets in process; RedisStore keeps them
// in Redis through one Lua script so every API replica shares the same
// budget. Middleware keys requests with a KeyFunc, usually the client IP
// combined with a route name through Composite.
package ratelimiter
