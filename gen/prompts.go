package gen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// codeSystemPrompt instructs the model to emit one standalone React component.
const codeSystemPrompt = `You are an expert frontend React engineer who is also a great UI/UX designer. Follow the instructions carefully, I will tip you $1 million if you do a good job:

- Think carefully step by step about building the most user-friendly and beautiful version of what was requested
- Create a React component with zero required props that runs completely standalone
- Make the component fully interactive with proper state management and event handlers
- Add engaging animations and transitions where appropriate
- Include proper loading states and error handling
- Make it mobile-responsive with a great experience on all devices
- Add helpful hover states and visual feedback for interactions

Technical Requirements:
- Import React hooks directly (useState, useEffect, etc.)
- Use TypeScript with proper types and interfaces
- Use only standard Tailwind classes for styling - NO ARBITRARY VALUES like h-[600px]
- Use proper margin/padding classes for consistent spacing
- Use a beautiful and consistent color palette
- Always include export default for the main component
- Handle all edge cases and loading states

Formatting Requirements:
- Start directly with imports, no explanations or comments
- No markdown code blocks or backticks
- No typescript/javascript/tsx tags
- Just clean, working React code

Available Libraries:
- React core library only
- Recharts ONLY for dashboards/charts/graphs:
  import { LineChart, XAxis, ... } from "recharts"
  <LineChart ...><XAxis dataKey="name"> ...

For Images:
- Use placeholder: <div className="bg-gray-200 border-2 border-dashed rounded-xl w-16 h-16" />

NO OTHER LIBRARIES ARE ALLOWED (e.g. zod, hookform)
ENSURE THE COMPONENT IS BEAUTIFUL AND FULLY FUNCTIONAL`

// codeOnlySuffix is appended for providers that cannot take a separate
// system message.
const codeOnlySuffix = "\nPlease ONLY return code, NO backticks or language names."

const ideaSystemPrompt = `Generate a creative app idea in the following format EXACTLY:
"Build me a [type] app that [brief description of main functionality]"

For example:
"Build me a fitness tracking app that uses gamification to motivate users"
"Build me a recipe management app that suggests meals based on available ingredients"

The app idea should be:
- Practical and feasible to implement
- Solving a real problem or fulfilling a need
- Clear and straightforward
- Specific enough to generate code from

Return ONLY the formatted prompt, nothing else. Always start with "Build me a" and follow the format above.`

const ideaUserPrompt = "Generate a creative and unique app idea that is practical, innovative, and solves a real problem."

const refineSystemPrompt = `Refine app development prompts by:
- Defining a clear, focused app purpose
- Specifying core features suitable for React
- Emphasizing user interaction and interface
- Ensuring concept is implementable in a single-page React application

Examples:

1. Original: "Build a fitness tracking app"
Refined: Create a React app that tracks daily exercises, displays workout progress with charts, and allows users to log and compare fitness activities.

2. Original: "Create a language learning tool"
Refined: Develop a React-based vocabulary learning app with interactive flashcard practice, simple quiz mechanism, and progress tracking using local storage.

3. Original: "Make a personal finance management tool"
Refined: Build a React expense tracker that enables users to input transactions, categorize spending, and visualize monthly budget allocations through interactive charts.

Return only the prompt without Refined all other texts and "". Clear prompt only.
DO NOT generate any code. Focus only on improving the prompt text to better describe the desired functionality and requirements`

func refineUserPrompt(prompt string) string {
	return fmt.Sprintf(`Please refine and improve this app idea prompt to be more specific and detailed: %q`, prompt)
}

// analysisPrompt asks the model to explain an error before fixing it.
func analysisPrompt(context string) string {
	return fmt.Sprintf(`You are an expert TypeScript and React developer analyzing code errors.

Code Context:
%s

Analyze this error and provide:
1. Error type and classification
2. Exact location if known
3. Most likely cause
4. Recommended fix with explanation

Focus on providing actionable, specific fixes that maintain type safety and React best practices.`, context)
}

// fixingPrompt asks the model for the complete corrected code.
func fixingPrompt(analysis, code string) string {
	return fmt.Sprintf(`You are an expert at fixing TypeScript and React code errors.

Current Error Analysis:
%s

Task: Fix the code based on this analysis.
- Return ONLY the complete fixed code
- Include ALL necessary imports
- Follow TypeScript and React best practices
- Do not include explanations or markdown formatting
- Ensure the fix addresses the root cause while maintaining existing functionality

Original Code:
%s`, analysis, code)
}

// errorContext assembles the code, the error and a few surrounding lines
// when a line number is known.
func errorContext(code, errMsg string, line, column int) string {
	context := fmt.Sprintf("Code:\n%s\n\nError:\n%s", code, errMsg)

	if line > 0 {
		lines := strings.Split(code, "\n")
		start := line - 2
		if start < 0 {
			start = 0
		}
		end := line + 2
		if end > len(lines) {
			end = len(lines)
		}

		context += "\n\nRelevant section:\n"
		for i := start; i < end; i++ {
			marker := "  "
			if i+1 == line {
				marker = "> "
			}
			context += fmt.Sprintf("%s%d: %s\n", marker, i+1, lines[i])
		}
	}
	return context
}

var (
	lineRe   = regexp.MustCompile(`(?i)line (\d+)`)
	columnRe = regexp.MustCompile(`(?i)column (\d+)`)
)

// parseErrorDetails pulls a line and column number out of an error string
// when present.
func parseErrorDetails(errMsg string) (line, column int) {
	if m := lineRe.FindStringSubmatch(errMsg); m != nil {
		line, _ = strconv.Atoi(m[1])
	}
	if m := columnRe.FindStringSubmatch(errMsg); m != nil {
		column, _ = strconv.Atoi(m[1])
	}
	return line, column
}

// contextualPrompt frames a refinement request around the current code so
// the model makes targeted changes rather than regenerating from scratch.
func contextualPrompt(userRequest, code, originalPrompt, lastError string) string {
	visual := regexp.MustCompile(`(?i)colou?r|size|width|height|layout|position|align|margin|padding`).MatchString(userRequest)
	logic := regexp.MustCompile(`(?i)function|state|effect|handle|click|event`).MatchString(userRequest)

	var targeted string
	if visual {
		targeted = `
Focus on UI Modification:
- Preserve all existing functionality and component structure
- Only modify the specified visual attributes
- Maintain Tailwind class consistency
- Ensure changes only affect the requested elements
- Keep all existing event handlers and props
- Preserve any dynamic class bindings`
	} else if logic {
		targeted = `
Focus on Logic Modification:
- Preserve the component's visual appearance
- Maintain TypeScript type safety
- Keep existing state management patterns
- Ensure proper error handling
- Preserve existing event propagation
- Handle edge cases appropriately`
	}

	var errCtx string
	if lastError != "" {
		line, col := parseErrorDetails(lastError)
		errCtx = "\nError Context:\n" + errorContext(code, lastError, line, col)
	}

	return strings.TrimSpace(fmt.Sprintf(`As a React and TypeScript expert, please help improve this code with precise, targeted changes.
%s
Original Requirements:
%s

Current Request:
%s
%s

Current Complete Code:
%s

Change Requirements:
1. Make only the specific changes requested
2. Preserve all other functionality and appearance
3. Maintain proper TypeScript types and interfaces
4. Keep existing imports and dependencies
5. Preserve component structure and naming
6. Ensure changes are scoped to affected areas only
7. Follow React best practices and hooks rules
8. Use consistent code formatting
9. Keep existing error handling and props
10. Maintain current state management approach

Technical Guidelines:
- Return complete, working component
- Include ALL necessary imports
- Use proper TypeScript syntax
- Avoid explanatory comments
- Return only the code
- Make surgical, precise changes
- Preserve file structure
- Keep existing logic flows
- Maintain component interfaces
- Use existing helper functions`,
		errCtx, originalPrompt, userRequest, targeted, code))
}

// descriptionPrompt asks for a conversational summary of a change.
func descriptionPrompt(userRequest, original, updated string) string {
	return fmt.Sprintf(`You are explaining changes made to a React component. The user requested: %q

Analyze what specific changes were made and respond naturally about what was done.
Be specific but conversational. Focus on what changed visually or functionally. Don't mention technical details unless relevant.

Format response to end with a question about if they want any adjustments or what else they need.

Original code:
%s

Updated code:
%s`, userRequest, original, updated)
}

// correctivePrompt is sent on a validation retry.
func correctivePrompt(issue string) string {
	return fmt.Sprintf("Please fix the following issue: %s. Ensure the code is complete and properly formatted.", issue)
}
