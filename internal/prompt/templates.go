package prompt

// defaultTemplates returns the built-in template for each phase. Deployments
// override these by loading a template file (see LoadFile).
func defaultTemplates() []*Template {
	return []*Template{
		{
			Phase:       PhaseAnalysis,
			Text:        analysisTemplate,
			Variables:   []string{"userRequest"},
			Description: "Analyzes a user request to understand its intent and complexity",
		},
		{
			Phase:       PhasePlanning,
			Text:        planningTemplate,
			Variables:   []string{"analysisResult"},
			Description: "Plans the tasks needed to satisfy an analyzed request",
		},
		{
			Phase:       PhaseExecution,
			Text:        executionTemplate,
			Variables:   []string{"taskId", "taskDescription", "availableTools", "requestContext"},
			Description: "Executes a single planned task with the available tools",
		},
		{
			Phase:       PhaseSynthesis,
			Text:        synthesisTemplate,
			Variables:   []string{"userRequest", "taskResults"},
			Description: "Synthesizes task results into a final answer",
		},
	}
}

const analysisTemplate = `# User Request Analysis

## Context
You are an advanced autonomous system that analyzes user requests and breaks
them down into executable work. Understand the user's intent and identify the
steps needed to satisfy the request.

## User Request
"{{userRequest}}"

## Instructions
1. Analyze the request in depth
2. Identify the main objective
3. Determine the knowledge domains required
4. Identify explicit and implicit constraints
5. Rate the complexity of the request (simple, medium, complex)

## Response Format
Respond with a JSON object in this exact format:
` + "```json" + `
{
  "mainObjective": "the primary goal of the request",
  "knowledgeDomains": ["domain1", "domain2"],
  "constraints": ["constraint1", "constraint2"],
  "complexity": "simple|medium|complex",
  "clarificationNeeded": false,
  "clarificationQuestions": []
}
` + "```" + `
Do not include any text before or after the JSON object.`

const planningTemplate = `# Autonomous Task Planning

## Context
You are an advanced autonomous system that plans the execution of complex
objectives. Decompose the objective into executable tasks and define their
execution order.

## Request Analysis
{{analysisResult}}

## Instructions
1. Decompose the main objective into executable tasks
2. Order the tasks logically
3. Identify dependencies between tasks
4. Estimate the time each task needs
5. Determine the tools each task requires

## Response Format
Respond with a JSON object in this exact format:
` + "```json" + `
{
  "tasks": [
    {
      "id": "task-1",
      "description": "what the task does",
      "dependencies": [],
      "estimatedTime": "estimate in minutes",
      "tools": ["tool1"],
      "expectedOutput": "what the task should produce"
    }
  ]
}
` + "```" + `
Dependencies must reference ids of other tasks in the same list. Do not
include any text before or after the JSON object.`

const executionTemplate = `# Autonomous Task Execution

## Context
You are an advanced autonomous system executing one task from a larger plan.
Accomplish the task using the tools at your disposal and document each step.

## Task
{{taskDescription}}

## Available Tools
{{availableTools}}

## Request Context
{{requestContext}}

## Instructions
1. Work through the task methodically
2. Record every step you take and the tool it used
3. Verify each step's result before moving on
4. Report any problems you encounter

## Response Format
Respond with a JSON object in this exact format:
` + "```json" + `
{
  "taskId": "{{taskId}}",
  "steps": [
    {
      "stepNumber": 1,
      "description": "what this step did",
      "toolUsed": "tool name or empty",
      "result": "what the step produced"
    }
  ],
  "outcome": "success|partial|failure",
  "result": "final result of the task",
  "issues": []
}
` + "```" + `
If the task requires controlling the user's machine, include an "actions"
array of {"actionType", "parameters", "purpose"} objects. Do not include any
text before or after the JSON object.`

const synthesisTemplate = `# Result Synthesis

## Context
You are an advanced autonomous system that has finished executing a plan of
tasks for a user request. Combine the task results into one coherent answer.

## Original Request
"{{userRequest}}"

## Task Results
{{taskResults}}

## Instructions
1. Review every task result, including failures
2. Combine the results into a single coherent response to the original request
3. Note any tasks that failed and how that limits the answer
4. Suggest next steps where appropriate

Respond with the final answer as clear, structured text.`

// systemPrompt is the default system prompt for autonomous runs.
const systemPrompt = `# Autonomous System Instructions

You are an advanced autonomous system. You must:

1. Understand user requests in depth
2. Decompose complex problems into manageable tasks
3. Execute those tasks methodically and rigorously
4. Make decisions based on context and intermediate results
5. Adapt your plan when new information appears
6. Produce complete, precise, useful results
7. Explain your reasoning and document your process

Operate autonomously without asking for further instructions except for
critical ambiguity. Be proactive, anticipate obstacles, verify the quality of
your results, and be transparent about your limits.`

// SystemPrompt returns the default system prompt for autonomous runs.
func SystemPrompt() string {
	return systemPrompt
}
