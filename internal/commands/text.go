package commands

// Banner is shown on first run and on an empty one-shot invocation
const Banner = `
   ██████╗ ██████╗  ██████╗ ██╗  ██╗      ██████╗ ██████╗ ██████╗ ███████╗
  ██╔════╝ ██╔══██╗██╔═══██╗██║ ██╔╝     ██╔════╝██╔═══██╗██╔══██╗██╔════╝
  ██║  ███╗██████╔╝██║   ██║█████╔╝█████╗██║     ██║   ██║██║  ██║█████╗
  ██║   ██║██╔══██╗██║   ██║██╔═██╗╚════╝██║     ██║   ██║██║  ██║██╔══╝
  ╚██████╔╝██║  ██║╚██████╔╝██║  ██╗      ╚██████╗╚██████╔╝██████╔╝███████╗
   ╚═════╝ ╚═╝  ╚═╝ ╚═════╝ ╚═╝  ╚═╝       ╚═════╝ ╚═════╝ ╚═════╝ ╚══════╝

  GROK-CODE - AI-Powered Development Assistant
  Powered by X.AI

  DISCLAIMER: AI-generated code requires review
  Read full disclaimer: grok /disclaimer
`

// FirstRunNotice summarizes the risks before setup
const FirstRunNotice = `This tool uses AI to generate code. AI can:
  - Generate incorrect or harmful code
  - Misinterpret your files or intent
  - Create security vulnerabilities
  - Produce unpredictable results

You are SOLELY RESPONSIBLE for reviewing and testing all generated code.

For full disclaimer, run: grok /disclaimer`

// Disclaimer is printed by /disclaimer
const Disclaimer = `GROK-CODE LEGAL DISCLAIMER

This software is provided "as is", without warranty of any kind, express or
implied, including but not limited to the warranties of merchantability,
fitness for a particular purpose and noninfringement.

AI-generated output
  Code, explanations and commands produced through this tool are generated by
  a third-party AI model. They may be incorrect, insecure, incomplete or
  unsuitable for your purpose. Review and test everything before use.

Your files and commands
  grok asks before it reads or writes any file and keeps a .backup copy of
  every file it overwrites. /run executes commands exactly as given, in your
  working directory, without confirmation. You are responsible for what you
  approve and run.

Your data
  Prompts, file contents you approve for reading, and session history are sent
  to the X.AI API. Do not share secrets or data you are not allowed to
  disclose. Sessions and configuration, including your API key, are stored
  unencrypted under ~/.grok.

Liability
  In no event shall the authors or copyright holders be liable for any claim,
  damages or other liability arising from the use of this software.`
