package evaluation

const classifyInstruction = `You are a technical recruiting assistant.
Decide whether the attached document is a candidate's resume (CV).
A resume presents a person's work history, skills, and education.
Respond ONLY with this JSON, no surrounding text:
{
  "isResume": <true or false>,
  "reason": "<one short sentence>"
}`

const extractInstruction = `You are an expert technical recruiter.
Analyze the attached resume and structure every relevant piece of candidate
information as JSON. Ignore layout; focus on content. If a value is missing,
estimate it logically, or leave it empty only when truly impossible.
Use STRICTLY this structure and these fields, adding and removing nothing:
{
  "firstName": "Jane",
  "lastName": "Doe",
  "title": "Job title / profession",
  "age": 32,
  "email": "example@email.com",
  "phones": ["+15550123456"],
  "location": "City",
  "skills": ["Web development", "Project management"],
  "tools": ["Python", "Java"],
  "experiences": [
    {"year": 2023, "title": "Developer", "description": "What they built"}
  ],
  "educations": [
    {"year": 2023, "degree": "MSc Computer Science", "institution": "University", "level": "Graduate"}
  ],
  "yearsOfExperience": 5,
  "educationLevel": "MSc"
}
"level" must be one of: Under Graduate, Graduate, Post Graduate.
Order experiences and educations most recent first.
Return ONLY the final JSON, without explanations.`

const scoreInstruction = `You are an expert technical recruiter.
Compare the candidate profile (JSON) to the job requisition (JSON), weighing
completed PROJECTS, SKILLS, TOOLS/TECHNOLOGIES, and EXPERIENCE. Be precise
and factual; never invent information.

Weighting (total = 100):
- Skills: 40 - match against required skills; bonus when demonstrated in
  projects similar to the role.
- Tools: 25 - exact or equivalent match (accept close synonyms, acronyms and
  versions: e.g. JS=JavaScript, React=React.js, Node=Node.js).
- Education level: 15 - fit against the required level (accept equivalences).
- Experience: 20 - relevant years against the minimum; proportional penalty
  below the minimum, no automatic bonus above it without relevance.

Procedure:
- Normalize before comparing (lowercase, trim simple plurals and accents,
  tolerate minor typos).
- When the requisition omits a criterion, redistribute its weight
  proportionally across the others.
- Use no external sources. Any missing candidate-side evidence counts as
  unsatisfied.
- Compute a score out of 100, rounded to the nearest integer.

Output constraints:
- Respond ONLY with this JSON, no surrounding text.
- "score": integer 0-100.
- "justification": at most 5 sentences objectively summarizing the main
  strengths and weaknesses.

Candidate profile:
%s

Job requisition:
%s

Return ONLY this JSON:
{
  "score": <integer between 0 and 100>,
  "justification": "<at most 5 sentences explaining the score>"
}`
