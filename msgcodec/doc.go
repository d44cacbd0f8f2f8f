// Package msgcodec encodes and decodes inbound message envelopes and swap
// command payloads.
//
// Command payload layout (integers big-endian):
//
//	tag(1) token_in(32) token_out(32) amount_in(8) min_amount_out(8)
//	path_len(uvarint) path(path_len*32) dex_choice(1) deadline(8)
//	dex_address(32) recipient(32) fee(4) sqrt_price_limit_x96(16)
//
// The quote envelope is tag(1) followed by the source chain id (4).
package msgcodec
