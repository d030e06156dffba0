// Package sharelink issues time-bounded, quota-limited download links for
// objects held in a cloud object store, and enforces those bounds when a
// link is redeemed.
//
// A link is tracked as a Ticket in an in-memory TicketCache, which is the
// source of truth for admission control, and mirrored into a durable Ledger
// used for listing, audit and cleanup. Redeeming a ticket produces a fresh
// provider-signed URL valid until the ticket's original expiry.
//
// URL signing itself is pluggable through the URLSigner interface; the
// native implementation for the OSS V1/V4 HMAC protocols lives in the
// oss subpackage, and an S3-compatible presigner in storage/s3.
package sharelink
