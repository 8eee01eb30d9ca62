/*
DESCRIPTION
  parser.go tokenizes one input line into a command verb and its
  arguments, honoring quoted-path arguments.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package protocol implements the wire protocol's line tokenizer and
// the classified wire error type.
package protocol

import "strings"

// Command is one parsed input line: a case-insensitive verb and its
// whitespace-separated (or quoted) arguments.
type Command struct {
	Verb string
	Args []string
}

// Parse tokenizes one UTF-8 input line (already trimmed of its line
// terminator and any trailing '\r') into a Command. The first token is
// the verb; remaining tokens are arguments. A token beginning with '"'
// extends to the next unescaped '"', preserving embedded spaces (a '"'
// preceded by a backslash is kept in the token as a plain '"'); a
// missing closing quote is reported as an InvalidArgument Error.
//
// Parse performs no semantic validation beyond tokenization and arity;
// argument-domain checks belong to the caller.
func Parse(line string) (Command, error) {
	tokens, err := tokenize(line)
	if err != nil {
		return Command{}, err
	}
	if len(tokens) == 0 {
		return Command{}, InvalidArgument("empty command line")
	}
	return Command{
		Verb: strings.ToUpper(tokens[0]),
		Args: tokens[1:],
	}, nil
}

// tokenize splits line on whitespace, treating a double-quoted run as a
// single token and preserving any spaces within it.
func tokenize(line string) ([]string, error) {
	var tokens []string
	i, n := 0, len(line)

	for i < n {
		for i < n && isSpace(line[i]) {
			i++
		}
		if i >= n {
			break
		}

		if line[i] == '"' {
			var tok strings.Builder
			j := i + 1
			closed := false
			for j < n {
				if line[j] == '\\' && j+1 < n && line[j+1] == '"' {
					tok.WriteByte('"') // Escaped quote: kept, does not close.
					j += 2
					continue
				}
				if line[j] == '"' {
					closed = true
					break
				}
				tok.WriteByte(line[j])
				j++
			}
			if !closed {
				return nil, InvalidArgument("unterminated quoted argument")
			}
			tokens = append(tokens, tok.String())
			i = j + 1
			continue
		}

		start := i
		for i < n && !isSpace(line[i]) {
			i++
		}
		tokens = append(tokens, line[start:i])
	}

	return tokens, nil
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}
