// Package timeouts defines the timeout constants shared by arena binaries.
package timeouts

import "time"

// HealthProbe caps a single gRPC health check call.
const HealthProbe = time.Second

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

// WebsocketWrite bounds a single websocket frame write.
const WebsocketWrite = 5 * time.Second

// WebsocketIdle closes a live channel that has not sent a frame for this long.
const WebsocketIdle = 2 * time.Minute

// ToolCall bounds one MCP tool invocation.
const ToolCall = 5 * time.Second
