// Package core holds the bank connect client: identifier validation, the
// auth context, the request pipeline and its error taxonomy, entities, and
// the lazy paginator over entity resources. Transport implementations live in
// adapter packages; core only depends on the TransportAdapter contract.
package core
