package judge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pythonTwoSum = `def two_sum(nums, target):
    seen = {}
    for i, n in enumerate(nums):
        if target - n in seen:
            return [seen[target - n], i]
        seen[n] = i
`

func TestExtractSignaturePython(t *testing.T) {
	sig, err := ExtractSignature(pythonTwoSum, LangPython)
	require.NoError(t, err)
	assert.Equal(t, "two_sum", sig.Name)
	assert.Equal(t, []string{"nums", "target"}, sig.Params)
}

func TestExtractSignatureOtherLanguages(t *testing.T) {
	cases := []struct {
		language string
		code     string
		want     string
	}{
		{LangJavaScript, "function reverseWords(s) { return s; }", "reverseWords"},
		{LangJavaScript, "const reverseWords = (s) => s;", "reverseWords"},
		{LangJava, "class Solution { public int[] twoSum(int[] nums, int target) { return nums; } }", "twoSum"},
		{LangCpp, "int maxSubArray(std::vector<int>& nums) { return 0; }", "maxSubArray"},
		{LangGo, "func MaxSubArray(nums []int) int { return 0 }", "MaxSubArray"},
	}

	for _, tc := range cases {
		sig, err := ExtractSignature(tc.code, tc.language)
		require.NoError(t, err, "language %s", tc.language)
		assert.Equal(t, tc.want, sig.Name, "language %s", tc.language)
	}
}

func TestExtractSignatureNoFunction(t *testing.T) {
	_, err := ExtractSignature("x = 5", LangPython)
	assert.Error(t, err)

	_, err = ExtractSignature("print('hi')", "ruby")
	assert.Error(t, err)
}

func TestNormalizeInputPerLanguage(t *testing.T) {
	// Python harnesses eval a Python literal.
	stdin, err := normalizeInput(LangPython, "([2, 7, 11], 9)")
	require.NoError(t, err)
	assert.Equal(t, "[[2, 7, 11], 9]", stdin)

	// JavaScript and Go harnesses parse JSON.
	stdin, err = normalizeInput(LangJavaScript, "([2, 7, 11], 9)")
	require.NoError(t, err)
	assert.Equal(t, "[[2, 7, 11], 9]", stdin)

	stdin, err = normalizeInput(LangJavaScript, "(True, None)")
	require.NoError(t, err)
	assert.Equal(t, "[true, null]", stdin)

	_, err = normalizeInput(LangPython, "not parseable ][")
	assert.Error(t, err)
}

func TestWrapPythonSpreadsTupleArgs(t *testing.T) {
	wrapped, err := WrapCode(pythonTwoSum, LangPython, "([2, 7, 11], 9)")
	require.NoError(t, err)

	assert.Contains(t, wrapped, "import ast")
	assert.Contains(t, wrapped, pythonTwoSum)
	assert.Contains(t, wrapped, "ast.literal_eval(input_str)")
	// Two parameters, two elements: spread them.
	assert.Contains(t, wrapped, "result = two_sum(*input_data)")
	assert.Contains(t, wrapped, "print(result)")
}

func TestWrapPythonSingleArg(t *testing.T) {
	code := "def reverse_list(nums):\n    return nums[::-1]\n"
	wrapped, err := WrapCode(code, LangPython, "[1, 2, 3]")
	require.NoError(t, err)
	assert.Contains(t, wrapped, "result = reverse_list(input_data)")
}

func TestWrapPythonKeywordArgs(t *testing.T) {
	wrapped, err := WrapCode(pythonTwoSum, LangPython, "{'nums': [2, 7], 'target': 9}")
	require.NoError(t, err)
	assert.Contains(t, wrapped, "result = two_sum(**input_data)")
}

func TestWrapJavaScript(t *testing.T) {
	code := "function twoSum(nums, target) { return []; }"
	wrapped, err := WrapCode(code, LangJavaScript, "([2, 7], 9)")
	require.NoError(t, err)

	assert.Contains(t, wrapped, "JSON.parse(line)")
	assert.Contains(t, wrapped, "result = twoSum(...input_data);")
	assert.Contains(t, wrapped, "console.log(result);")
}

func TestWrapJavaRequiresClass(t *testing.T) {
	_, err := WrapCode("public int solve(String s) { return 0; }", LangJava, "'abc'")
	assert.Error(t, err)

	wrapped, err := WrapCode("class Solution { public String solve(String s) { return s; } }", LangJava, "'abc'")
	require.NoError(t, err)
	assert.Contains(t, wrapped, "Solution solution = new Solution();")
	assert.Contains(t, wrapped, "solution.solve(input)")
}

func TestWrapGoStripsPackageClause(t *testing.T) {
	code := "package solution\n\nfunc Solve(input string) string { return input }\n"
	wrapped, err := WrapCode(code, LangGo, "'abc'")
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(wrapped, "package main"))
	assert.NotContains(t, wrapped, "package solution")
	assert.Contains(t, wrapped, "fmt.Println(Solve(line))")
}
