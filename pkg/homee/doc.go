// Package homee provides a client for the homee home automation hub's
// HTTP and WebSocket API.
//
// # Basic Usage
//
//	ctx := context.Background()
//	client, err := homee.NewClient("192.168.1.50", "user", "secret")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := client.GetToken(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	nodes := client.Nodes()
//
// Connect sends the bootstrap reads and starts a receive loop that keeps a
// snapshot of nodes, attributes, groups, homeegrams and the user up to date.
// The loop ends when the connection drops; Done, Err and WithStateHandler
// report it. The client does not reconnect.
//
// # Request/Reply
//
// Homee wraps a connection from Client.Dial and decodes replies on demand:
//
//	conn, err := client.Dial(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	h, _ := homee.NewHomee(conn)
//	defer h.Close()
//	grams, err := h.GetHomeegrams(ctx)
//
// # Configuration
//
// The client can be configured using functional options:
//
//	client, err := homee.NewClient(host, user, password,
//	    homee.WithAuthStrategy(homee.MessageAuth{}),
//	    homee.WithVerbCase(homee.UpperCaseVerbs),
//	    homee.WithConnectTimeout(10*time.Second),
//	    homee.WithLogger(slog.Default()),
//	)
//
// # Protocol
//
// The hub serves plain HTTP and WebSocket on port 7681. Commands are text
// frames of the form "verb:resource?query"; replies and pushes are JSON
// objects keyed by entity type.
package homee
