package judge

import (
	"fmt"
	"regexp"
	"strings"
)

// Harness generation: user code never runs bare. Each language gets a wrapper
// that reads the canonical stdin, invokes the detected entry function, and
// prints the result, so that only the stdin format and output parsing are
// contractual.

// FunctionSignature describes the entry function detected in a solution.
type FunctionSignature struct {
	Name   string   `json:"function_name"`
	Params []string `json:"parameters"`
}

var (
	pythonDefRe = regexp.MustCompile(`def\s+(\w+)\s*\((.*?)\)\s*:`)
	jsFuncRe    = regexp.MustCompile(`function\s+(\w+)\s*\(`)
	jsArrowRe   = regexp.MustCompile(`(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s*)?\(`)
	javaFuncRe  = regexp.MustCompile(`public\s+(?:static\s+)?(?:[\w<>\[\]]+\s+)?(\w+)\s*\(`)
	javaClassRe = regexp.MustCompile(`class\s+(\w+)`)
	cppFuncRe   = regexp.MustCompile(`(?:int|void|double|float|bool|char|string|auto|std::\w+|vector<[^>]*>)\s+(\w+)\s*\(`)
	goFuncRe    = regexp.MustCompile(`func\s+(\w+)\s*\(`)
)

// ExtractSignature finds the entry function in user code for a language.
// Python extraction also reports the parameter list; the other languages
// report the name only.
func ExtractSignature(code, language string) (*FunctionSignature, error) {
	switch language {
	case LangPython:
		m := pythonDefRe.FindStringSubmatch(code)
		if m == nil {
			return nil, fmt.Errorf("no function definition found")
		}
		var params []string
		for _, p := range strings.Split(m[2], ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				params = append(params, trimmed)
			}
		}
		return &FunctionSignature{Name: m[1], Params: params}, nil

	case LangJavaScript:
		if m := jsFuncRe.FindStringSubmatch(code); m != nil {
			return &FunctionSignature{Name: m[1]}, nil
		}
		if m := jsArrowRe.FindStringSubmatch(code); m != nil {
			return &FunctionSignature{Name: m[1]}, nil
		}
		return nil, fmt.Errorf("no function definition found")

	case LangJava:
		if m := javaFuncRe.FindStringSubmatch(code); m != nil {
			return &FunctionSignature{Name: m[1]}, nil
		}
		return nil, fmt.Errorf("no method definition found")

	case LangCpp:
		if m := cppFuncRe.FindStringSubmatch(code); m != nil {
			return &FunctionSignature{Name: m[1]}, nil
		}
		return nil, fmt.Errorf("no function definition found")

	case LangGo:
		if m := goFuncRe.FindStringSubmatch(code); m != nil {
			return &FunctionSignature{Name: m[1]}, nil
		}
		return nil, fmt.Errorf("no function definition found")

	default:
		return nil, fmt.Errorf("unsupported language %q", language)
	}
}

// normalizeInput parses a testcase's raw input and renders the canonical
// stdin line for the language's harness.
func normalizeInput(language, inputData string) (string, error) {
	value, err := ParseLiteral(inputData)
	if err != nil {
		return "", fmt.Errorf("cannot parse testcase input: %w", err)
	}

	switch language {
	case LangJavaScript, LangGo:
		return renderJSON(value), nil
	default:
		return renderPython(value), nil
	}
}

// WrapCode embeds user code in the language harness that reads one stdin
// line, calls the entry function, and prints the result. The Python and
// JavaScript harnesses decode the line into arguments; the Java, C++ and Go
// harnesses pass the raw line as a single string argument.
func WrapCode(code, language, inputData string) (string, error) {
	sig, err := ExtractSignature(code, language)
	if err != nil {
		return "", err
	}

	value, err := ParseLiteral(inputData)
	if err != nil {
		return "", fmt.Errorf("cannot parse testcase input: %w", err)
	}

	switch language {
	case LangPython:
		return wrapPython(code, sig, value), nil
	case LangJavaScript:
		return wrapJavaScript(code, sig, value), nil
	case LangJava:
		return wrapJava(code, sig)
	case LangCpp:
		return wrapCpp(code, sig), nil
	case LangGo:
		return wrapGo(code, sig), nil
	default:
		return "", fmt.Errorf("unsupported language %q", language)
	}
}

func wrapPython(code string, sig *FunctionSignature, value any) string {
	var call string
	switch v := value.(type) {
	case map[string]any:
		call = fmt.Sprintf("result = %s(**input_data)", sig.Name)
	case []any:
		if len(v) == len(sig.Params) && len(sig.Params) > 1 {
			call = fmt.Sprintf("result = %s(*input_data)", sig.Name)
		} else {
			call = fmt.Sprintf("result = %s(input_data)", sig.Name)
		}
	default:
		call = fmt.Sprintf("result = %s(input_data)", sig.Name)
	}

	return fmt.Sprintf(`import ast
%s

if __name__ == "__main__":
    input_str = input()
    input_data = ast.literal_eval(input_str)
    %s
    print(result)
`, code, call)
}

func wrapJavaScript(code string, sig *FunctionSignature, value any) string {
	call := fmt.Sprintf("result = %s(input_data);", sig.Name)
	if _, isList := value.([]any); isList {
		call = fmt.Sprintf("result = %s(...input_data);", sig.Name)
	}

	return fmt.Sprintf(`%s

const readline = require('readline');
const rl = readline.createInterface({ input: process.stdin });
rl.on('line', (line) => {
  const input_data = JSON.parse(line);
  let result;
  %s
  console.log(result);
  rl.close();
});
`, code, call)
}

func wrapJava(code string, sig *FunctionSignature) (string, error) {
	m := javaClassRe.FindStringSubmatch(code)
	if m == nil {
		return "", fmt.Errorf("no class definition found in Java code")
	}
	className := m[1]

	return fmt.Sprintf(`%s

public class Main {
    public static void main(String[] args) throws Exception {
        java.util.Scanner sc = new java.util.Scanner(System.in);
        String input = sc.nextLine();
        %s solution = new %s();
        System.out.println(solution.%s(input));
        sc.close();
    }
}
`, code, className, className, sig.Name), nil
}

func wrapCpp(code string, sig *FunctionSignature) string {
	return fmt.Sprintf(`#include <iostream>
#include <vector>
#include <string>
#include <sstream>
%s

int main() {
    std::string input;
    std::getline(std::cin, input);
    std::cout << %s(input) << std::endl;
    return 0;
}
`, code, sig.Name)
}

func wrapGo(code string, sig *FunctionSignature) string {
	return fmt.Sprintf(`package main

import (
	"bufio"
	"fmt"
	"os"
)

%s

func main() {
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	fmt.Println(%s(line))
}
`, stripGoPackageClause(code), sig.Name)
}

// stripGoPackageClause removes a leading package clause so user code can be
// concatenated into the harness file.
func stripGoPackageClause(code string) string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "package ") {
			lines[i] = ""
			break
		}
	}
	return strings.Join(lines, "\n")
}
