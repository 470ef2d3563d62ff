// Package normalizer flattens nested response trees into an identity-keyed
// record store and extracts the side-channel work the response implies but
// does not carry inline.
//
// # Overview
//
// Normalize walks a (selection, record, response-object) triple recursively,
// dispatching on the selection kind:
//
//   - Scalar fields write their response value verbatim, distinguishing
//     explicit null (written) from an absent key (left unset, or forced to
//     null under Options.HandleStrippedNulls).
//   - Linked fields resolve the target record identity with a fixed
//     precedence (payload id, previously stored identity, synthesized
//     client identity), create or revalidate the target record, store the
//     link on the owner, and recurse. Plural links do this per item, keyed
//     additionally by index, and replace the owner's stored identity list
//     wholesale so it tracks growth, shrinkage, and reordering; null items
//     stay null.
//   - Inline fragments apply only when the record's stored runtime type
//     equals the fragment's type; conditions apply only when their variable
//     matches the declared passing value.
//   - Handle fields write nothing; they append a HandleFieldPayload for an
//     out-of-band client resolver.
//   - Match fields pick a case from a static per-type table. An unlisted
//     payload type stores null and moves on. A listed one links a record and,
//     when the payload carries a module operation reference, appends a
//     MatchFieldPayload; the fragment itself is normalized by a later stage.
//   - Defer boundaries either normalize inline (guard false) or append an
//     IncrementalPayload pointing back at the owner record. Stream
//     boundaries always normalize the delivered items inline and append a
//     continuation only when the guard holds.
//
// The traversal path is threaded down the call stack as an immutable value,
// so continuation payloads capture it without copy-on-read hazards.
//
// # Errors
//
// Shape disagreements between the selection tree and the response (missing
// root record, missing typename where the type must come from the payload,
// non-object/non-array values, unusable identities, unflattened selections)
// are fatal ContractErrors. The record source is left partially mutated;
// callers discard the snapshot rather than retry. Everything weaker (missing
// expected fields, non-boolean guards, one identity seen under two types) is
// a diag event: observational, never control flow.
//
// Normalization is synchronous and holds no locks; hosts that normalize
// concurrently into one source must serialize those calls themselves.
package normalizer
