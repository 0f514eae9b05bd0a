/*

Process of assembly

Pseudocode Text ->
	parse (front) ->
Intermediate Representation (ir) ->
	lower (back) ->
Token Stream (asm) ->
	assemble, pass 1 (sym) ->
	assemble, pass 2 (arm64) ->
Binary Object (obj)

Assembly Text ->
	lex ->
Token Stream (asm) ->
	assemble ->
Binary Object (obj)

*/
package compiler
