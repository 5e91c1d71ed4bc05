// Package routing defines the public contract of the subscription routing
// core: given a published topic, decide which subscription identifiers
// should receive the message.
//
// The package holds only interfaces and is dependency-free; the trie-backed
// implementation lives in internal/routing and the richer subscription
// metadata (client id, transport, expiry) is owned by the surrounding
// subscription manager, keyed by the same subscription id.
//
// Correctness contract: for every registered pattern P and every valid
// topic T, Route(T) contains the id registered for P exactly when
// topic.Match(T, P) is true, under any interleaving of Subscribe and
// Unsubscribe calls.
//
// Example usage:
//
//	router := routing.NewTrieRouter() // from internal/routing in this repo
//	if err := router.Subscribe("sub_1", "signal.email.*"); err != nil {
//		return err
//	}
//
//	ids, err := router.Route("signal.email.sent")
//	if err != nil {
//		return err
//	}
//	for _, id := range ids {
//		deliver(id)
//	}
package routing
